// Package model contains the domain types shared across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO date format Odoo expects for wizard fields.
const DateLayout = "2006-01-02"

// Report request modes understood by the attendance wizard.
const (
	ModeCategory = "category"
	ModeCompany  = "company"
)

// CompanyScopeAll selects every company in the wizard's company_all field.
const CompanyScopeAll = "allcompany"

// ReportRequest holds the filters used to configure one report wizard.
// It is built once per run and never mutated.
type ReportRequest struct {
	DateFrom   time.Time
	DateTo     time.Time
	ReportType string
	Mode       string
	CategoryID int64
	CompanyID  int64
}

// Validate checks that the request can be submitted to the wizard.
func (r ReportRequest) Validate() error {
	if strings.TrimSpace(r.ReportType) == "" {
		return fmt.Errorf("report type is required")
	}
	if r.DateFrom.IsZero() || r.DateTo.IsZero() {
		return fmt.Errorf("date range is required")
	}
	if r.DateTo.Before(r.DateFrom) {
		return fmt.Errorf("date_to %s is before date_from %s", r.DateTo.Format(DateLayout), r.DateFrom.Format(DateLayout))
	}
	if r.CompanyID <= 0 {
		return fmt.Errorf("company id must be positive")
	}
	switch r.Mode {
	case ModeCategory:
		if r.CategoryID <= 0 {
			return fmt.Errorf("category id must be positive in category mode")
		}
	case ModeCompany:
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	return nil
}

// From returns the start date formatted for the wizard.
func (r ReportRequest) From() string {
	return r.DateFrom.Format(DateLayout)
}

// To returns the end date formatted for the wizard.
func (r ReportRequest) To() string {
	return r.DateTo.Format(DateLayout)
}

// ArtifactName returns the deterministic local file name for the downloaded report.
func (r ReportRequest) ArtifactName(suffix string) string {
	return fmt.Sprintf("%s_%s_to_%s%s.xlsx", r.ReportType, r.From(), r.To(), suffix)
}
