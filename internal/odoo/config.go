// Package odoo talks to the Odoo web client's JSON-RPC endpoints to configure,
// generate and download attendance reports.
package odoo

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the connection settings for an Odoo instance.
type Config struct {
	BaseURL         string
	Database        string
	Username        string
	Password        string
	Model           string
	ButtonMethod    string
	Timezone        string
	Language        string
	UserAgent       string
	RPCTimeout      time.Duration
	ButtonTimeout   time.Duration
	DownloadTimeout time.Duration
	ReuseWizard     bool
}

// DefaultConfig returns the settings the attendance report wizard expects.
func DefaultConfig() Config {
	return Config{
		Model:           "attendance.pdf.report",
		ButtonMethod:    "action_generate_xlsx_report",
		Timezone:        "Asia/Dhaka",
		Language:        "en_US",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		RPCTimeout:      60 * time.Second,
		ButtonTimeout:   120 * time.Second,
		DownloadTimeout: 180 * time.Second,
		ReuseWizard:     true,
	}
}

// Validate checks that the configuration can reach an instance.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("odoo base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid odoo base URL %q", c.BaseURL)
	}
	if c.Database == "" {
		return fmt.Errorf("odoo database is required")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("odoo credentials are required")
	}
	if c.Model == "" || c.ButtonMethod == "" {
		return fmt.Errorf("wizard model and button method are required")
	}
	if c.RPCTimeout <= 0 || c.ButtonTimeout <= 0 || c.DownloadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func (c *Config) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
