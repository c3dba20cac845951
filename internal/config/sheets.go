package config

import (
	"fmt"
	"os"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or OTSYNC_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. A credentials.json service account key in the working directory
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(
		v.GetString("sheets.service_account_path"),
		os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"),
	))
	config.ClientID = firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))

	// The token file only matters for the OAuth flow.
	if config.ClientID != "" && config.ClientSecret != "" {
		config.TokenFile = ExpandPath(v.GetString("sheets.token_file"))
	}

	if n := v.GetInt("sheets.batch_size"); n > 0 {
		config.BatchSize = n
	}
	if n := v.GetInt("sheets.retry_attempts"); n > 0 {
		config.RetryAttempts = n
	}
	if d := v.GetDuration("sheets.retry_delay"); d > 0 {
		config.RetryDelay = d
	}
	if d := v.GetDuration("sheets.max_retry_delay"); d > 0 {
		config.MaxRetryDelay = d
	}

	if config.ServiceAccountPath == "" && !config.HasOAuth() {
		config.ServiceAccountPath = sheets.DefaultServiceAccountPath
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	return &config, nil
}
