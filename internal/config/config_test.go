package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "", want: "2025-09-15"},
		{input: "today", want: "2025-09-15"},
		{input: "Yesterday", want: "2025-09-14"},
		{input: "2025-08-01", want: "2025-08-01"},
		{input: " 2025-08-01 ", want: "2025-08-01"},
		{input: "01-08-2025", wantErr: true},
		{input: "last week", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ResolveDate(tt.input, testNow)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(model.DateLayout))
		})
	}
}

func TestLoadJobs_Defaults(t *testing.T) {
	v := newViper(t, "")

	jobs, err := LoadJobs(v, testNow)
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	byName := map[string]model.Job{}
	for _, j := range jobs {
		byName[j.Name] = j
	}

	mt := byName["mt-20"]
	assert.Equal(t, 47, mt.Layout.RowLimit)
	assert.Equal(t, 51, mt.Layout.FormulaRow)
	assert.Equal(t, model.ValueInputRaw, mt.Layout.ValueInput)
	assert.Equal(t, "2025-09-15", mt.Request.To())
	assert.Equal(t, int64(3), mt.Request.CompanyID)
	assert.Equal(t, int64(20), mt.Request.CategoryID)

	zip := byName["zip-20"]
	assert.Equal(t, 80, zip.Layout.RowLimit)
	assert.Equal(t, 84, zip.Layout.FormulaRow)
	assert.Equal(t, model.Window{From: 7, To: 80}, zip.Layout.OddWindow)
	assert.Equal(t, model.Window{From: 8, To: 81}, zip.Layout.EvenWindow)
	assert.Equal(t, "2025-08-01", zip.Request.From())
	assert.Equal(t, "2025-09-14", zip.Request.To())
	assert.Equal(t, "Sheet1", zip.Destination.Tab)
	assert.Equal(t, "ot_analysis_2025-08-01_to_2025-09-14_cat20.xlsx", zip.Request.ArtifactName(zip.ArtifactSuffix))

	assert.Equal(t, int64(42), byName["zip-c"].Request.CategoryID)
}

func TestLoadJobs_FromFile(t *testing.T) {
	v := newViper(t, `
artifacts:
  dir: /var/lib/otsync
jobs:
  - name: staff
    report_type: ot_analysis
    date_from: "2025-09-01"
    date_to: yesterday
    category_id: 31
    company_id: 1
    spreadsheet_url: https://docs.google.com/spreadsheets/d/abc123/edit
    tab: Staff OT
    row_limit: 60
    value_input: raw
  - name: company-wide
    report_type: job_card
    date_from: today
    mode: company
    company_id: 3
    spreadsheet_url: abc123
    tab: Cards
    row_limit: 20
    formula_row: 30
    artifact_dir: /tmp/cards
`)

	jobs, err := LoadJobs(v, testNow)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	staff := jobs[0]
	assert.Equal(t, "staff", staff.Name)
	assert.Equal(t, "/var/lib/otsync", staff.ArtifactDir)
	assert.Equal(t, model.ValueInputRaw, staff.Layout.ValueInput)
	assert.Equal(t, 64, staff.Layout.FormulaRow)
	assert.Equal(t, model.ModeCategory, staff.Request.Mode)
	assert.Equal(t, "2025-09-14", staff.Request.To())

	cards := jobs[1]
	assert.Equal(t, model.ModeCompany, cards.Request.Mode)
	assert.Equal(t, 30, cards.Layout.FormulaRow)
	assert.Equal(t, "/tmp/cards", cards.ArtifactDir)
	assert.Equal(t, "2025-09-15", cards.Request.From())
}

func TestLoadJobs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing tab",
			yaml: `
jobs:
  - name: x
    report_type: ot_analysis
    date_from: "2025-08-01"
    category_id: 1
    company_id: 1
    spreadsheet_url: abc
    row_limit: 10
`,
		},
		{
			name: "reversed dates",
			yaml: `
jobs:
  - name: x
    report_type: ot_analysis
    date_from: "2025-10-01"
    date_to: "2025-09-01"
    category_id: 1
    company_id: 1
    spreadsheet_url: abc
    tab: t
    row_limit: 10
`,
		},
		{
			name: "duplicate names",
			yaml: `
jobs:
  - {name: x, report_type: a, date_from: "2025-08-01", category_id: 1, company_id: 1, spreadsheet_url: abc, tab: t, row_limit: 10}
  - {name: x, report_type: a, date_from: "2025-08-01", category_id: 1, company_id: 1, spreadsheet_url: abc, tab: t, row_limit: 10}
`,
		},
		{
			name: "formula row overlapping data",
			yaml: `
jobs:
  - {name: x, report_type: a, date_from: "2025-08-01", category_id: 1, company_id: 1, spreadsheet_url: abc, tab: t, row_limit: 10, formula_row: 11}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJobs(newViper(t, tt.yaml), testNow)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestSelectJobs(t *testing.T) {
	jobs, err := LoadJobs(newViper(t, ""), testNow)
	require.NoError(t, err)

	selected, err := SelectJobs(jobs, []string{"zip-c", "mt-20"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "zip-c", selected[0].Name)
	assert.Equal(t, "mt-20", selected[1].Name)

	_, err = SelectJobs(jobs, []string{"nope"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLoadOdooConfig(t *testing.T) {
	clearEnv(t, "ODOO_URL", "ODOO_DB", "ODOO_USERNAME", "ODOO_PASSWORD")

	_, err := LoadOdooConfig(newViper(t, ""))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	t.Setenv("ODOO_URL", "https://erp.example.com")
	t.Setenv("ODOO_DB", "env-db")
	t.Setenv("ODOO_USERNAME", "user@example.com")
	t.Setenv("ODOO_PASSWORD", "secret")

	cfg, err := LoadOdooConfig(newViper(t, `
odoo:
  db: file-db
  rpc_timeout: 15s
  reuse_wizard: false
`))
	require.NoError(t, err)
	assert.Equal(t, "https://erp.example.com", cfg.BaseURL)
	assert.Equal(t, "file-db", cfg.Database)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 15*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 120*time.Second, cfg.ButtonTimeout)
	assert.Equal(t, "attendance.pdf.report", cfg.Model)
	assert.False(t, cfg.ReuseWizard)
}

func TestLoadSheetsConfig(t *testing.T) {
	clearEnv(t,
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
	)

	cfg, err := LoadSheetsConfig(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "credentials.json", cfg.ServiceAccountPath)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.Empty(t, cfg.TokenFile)

	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
	cfg, err = LoadSheetsConfig(newViper(t, `
sheets:
  batch_size: 50
  token_file: /tmp/otsync-token.json
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.ServiceAccountPath)
	assert.Equal(t, "/tmp/otsync-token.json", cfg.TokenFile)
	assert.Equal(t, 50, cfg.BatchSize)
}

func TestLoadRetryOptions(t *testing.T) {
	opts, err := LoadRetryOptions(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 5, opts.MaxAttempts)
	assert.Equal(t, 2*time.Second, opts.InitialDelay)
	assert.Equal(t, time.Second, opts.Jitter)
	assert.InDelta(t, 2.0, opts.Multiplier, 0.001)

	opts, err = LoadRetryOptions(newViper(t, `
retry:
  max_attempts: 3
  base_delay: 500ms
  jitter: 0s
`))
	require.NoError(t, err)
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, opts.InitialDelay)
	assert.Equal(t, time.Duration(0), opts.Jitter)

	_, err = LoadRetryOptions(newViper(t, "retry:\n  max_attempts: 0\n"))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTSYNC_TEST_A=from-file\nOTSYNC_TEST_B=from-file\n"), 0o600))

	t.Setenv("OTSYNC_TEST_A", "from-env")
	require.NoError(t, os.Unsetenv("OTSYNC_TEST_B"))
	t.Cleanup(func() { _ = os.Unsetenv("OTSYNC_TEST_B") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-env", os.Getenv("OTSYNC_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("OTSYNC_TEST_B"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("OTSYNC_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, filepath.Join(home, "x.db"), ExpandPath("~/x.db"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/data/runs.db", ExpandPath("$OTSYNC_TEST_DIR/runs.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
