package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/spf13/viper"
)

// Relative date keywords accepted for date_from and date_to.
const (
	DateToday     = "today"
	DateYesterday = "yesterday"
)

// JobConfig is one entry of the jobs list in the config file.
type JobConfig struct {
	Name           string `mapstructure:"name"`
	ReportType     string `mapstructure:"report_type"`
	DateFrom       string `mapstructure:"date_from"`
	DateTo         string `mapstructure:"date_to"`
	Mode           string `mapstructure:"mode"`
	SpreadsheetURL string `mapstructure:"spreadsheet_url"`
	Tab            string `mapstructure:"tab"`
	ValueInput     string `mapstructure:"value_input"`
	ArtifactDir    string `mapstructure:"artifact_dir"`
	ArtifactSuffix string `mapstructure:"artifact_suffix"`
	CategoryID     int64  `mapstructure:"category_id"`
	CompanyID      int64  `mapstructure:"company_id"`
	RowLimit       int    `mapstructure:"row_limit"`
	FormulaRow     int    `mapstructure:"formula_row"`
	DateRow        int    `mapstructure:"date_row"`
}

// DefaultJobConfigs are the four tracking-sheet syncs: metal trims and
// zipper B-worker, zipper staff, and the fourth-company OT sheet.
func DefaultJobConfigs() []JobConfig {
	const zipperSheet = "https://docs.google.com/spreadsheets/d/1W9qXHRPrSffHfcQvBxrAK2fTAqne5ohqf0tIn1oMujM/edit"
	return []JobConfig{
		{
			Name:           "mt-20",
			ReportType:     "ot_analysis",
			DateFrom:       "2025-08-01",
			DateTo:         DateToday,
			Mode:           model.ModeCategory,
			CategoryID:     20,
			CompanyID:      3,
			SpreadsheetURL: "https://docs.google.com/spreadsheets/d/1clIzaVWDNcwGIrTNCNIDXmeUf0wEnH3NrWfVZYeoa4Q/edit",
			Tab:            "Sheet2",
			RowLimit:       47,
			ValueInput:     model.ValueInputRaw,
			ArtifactSuffix: "_cat20",
		},
		{
			Name:           "zip-20",
			ReportType:     "ot_analysis",
			DateFrom:       "2025-08-01",
			DateTo:         DateYesterday,
			Mode:           model.ModeCategory,
			CategoryID:     30,
			CompanyID:      1,
			SpreadsheetURL: zipperSheet,
			Tab:            "Sheet1",
			RowLimit:       80,
			ValueInput:     model.ValueInputUserEntered,
			ArtifactSuffix: "_cat20",
		},
		{
			Name:           "zip-21",
			ReportType:     "ot_analysis",
			DateFrom:       "2025-08-01",
			DateTo:         DateYesterday,
			Mode:           model.ModeCategory,
			CategoryID:     30,
			CompanyID:      1,
			SpreadsheetURL: zipperSheet,
			Tab:            "Sheet2",
			RowLimit:       80,
			ValueInput:     model.ValueInputUserEntered,
			ArtifactSuffix: "_cat21",
		},
		{
			Name:           "zip-c",
			ReportType:     "ot_analysis",
			DateFrom:       "2025-08-01",
			DateTo:         DateYesterday,
			Mode:           model.ModeCategory,
			CategoryID:     42,
			CompanyID:      4,
			SpreadsheetURL: zipperSheet,
			Tab:            "Sheet3",
			RowLimit:       80,
			ValueInput:     model.ValueInputUserEntered,
			ArtifactSuffix: "_catc",
		},
	}
}

// LoadJobs reads the jobs list, falling back to the defaults when none is
// configured. Relative dates resolve against now.
func LoadJobs(v *viper.Viper, now time.Time) ([]model.Job, error) {
	var configs []JobConfig
	if v.IsSet("jobs") {
		if err := v.UnmarshalKey("jobs", &configs); err != nil {
			return nil, fmt.Errorf("%w: jobs: %w", common.ErrInvalidConfig, err)
		}
	}
	if len(configs) == 0 {
		configs = DefaultJobConfigs()
	}

	artifactDir := ExpandPath(v.GetString("artifacts.dir"))
	seen := make(map[string]bool, len(configs))
	jobs := make([]model.Job, 0, len(configs))
	for i, jc := range configs {
		if jc.ArtifactDir == "" {
			jc.ArtifactDir = artifactDir
		}
		job, err := jc.Job(now)
		if err != nil {
			return nil, fmt.Errorf("%w: jobs[%d]: %w", common.ErrInvalidConfig, i, err)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("%w: duplicate job name %q", common.ErrInvalidConfig, job.Name)
		}
		seen[job.Name] = true
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Job converts the config entry into a validated job.
func (jc JobConfig) Job(now time.Time) (model.Job, error) {
	from, err := ResolveDate(jc.DateFrom, now)
	if err != nil {
		return model.Job{}, fmt.Errorf("date_from: %w", err)
	}
	to, err := ResolveDate(jc.DateTo, now)
	if err != nil {
		return model.Job{}, fmt.Errorf("date_to: %w", err)
	}

	mode := jc.Mode
	if mode == "" {
		mode = model.ModeCategory
	}

	layout := model.DefaultLayout(jc.RowLimit)
	if jc.ValueInput != "" {
		layout.ValueInput = strings.ToUpper(jc.ValueInput)
	}
	if jc.FormulaRow > 0 {
		layout.FormulaRow = jc.FormulaRow
	}
	if jc.DateRow > 0 {
		layout.DateRow = jc.DateRow
	}

	job := model.Job{
		Name:           jc.Name,
		ArtifactDir:    ExpandPath(jc.ArtifactDir),
		ArtifactSuffix: jc.ArtifactSuffix,
		Destination: model.Destination{
			SpreadsheetURL: jc.SpreadsheetURL,
			Tab:            jc.Tab,
		},
		Request: model.ReportRequest{
			ReportType: jc.ReportType,
			DateFrom:   from,
			DateTo:     to,
			Mode:       mode,
			CategoryID: jc.CategoryID,
			CompanyID:  jc.CompanyID,
		},
		Layout: layout,
	}
	if err := job.Validate(); err != nil {
		return model.Job{}, err
	}
	return job, nil
}

// ResolveDate parses an ISO date or one of the relative keywords. An empty
// value means today.
func ResolveDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", DateToday:
		return today, nil
	case DateYesterday:
		return today.AddDate(0, 0, -1), nil
	}
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD, today or yesterday", s)
	}
	return t, nil
}

// SelectJobs returns the jobs with the given names in the order asked for.
func SelectJobs(jobs []model.Job, names []string) ([]model.Job, error) {
	byName := make(map[string]model.Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name] = j
	}
	selected := make([]model.Job, 0, len(names))
	for _, name := range names {
		j, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown job %q: %w", name, common.ErrNotFound)
		}
		selected = append(selected, j)
	}
	return selected, nil
}

// LedgerPath returns the run ledger database path.
func LedgerPath(v *viper.Viper) string {
	return ExpandPath(v.GetString("ledger.path"))
}
