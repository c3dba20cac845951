// Package sheets publishes extracted report tables into Google Sheets tabs.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/overtime-sync/internal/service"
)

// DefaultServiceAccountPath is the key file looked up when no other
// credentials are configured.
const DefaultServiceAccountPath = "credentials.json"

// Config holds the configuration for the Google Sheets publisher.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	MaxRetryDelay      time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	quota := service.QuotaRetryOptions()
	return Config{
		BatchSize:     200,
		RetryAttempts: quota.MaxAttempts,
		RetryDelay:    quota.InitialDelay,
		MaxRetryDelay: quota.MaxDelay,
	}
}

// HasOAuth reports whether OAuth2 client credentials and a token source are
// configured.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.HasOAuth()
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 || c.MaxRetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	return nil
}

// retryOptions is the quota retry schedule with configured overrides.
func (c *Config) retryOptions() service.RetryOptions {
	opts := service.QuotaRetryOptions()
	if c.RetryAttempts > 0 {
		opts.MaxAttempts = c.RetryAttempts
	}
	if c.RetryDelay > 0 {
		opts.InitialDelay = c.RetryDelay
	}
	if c.MaxRetryDelay > 0 {
		opts.MaxDelay = c.MaxRetryDelay
	}
	return opts
}
