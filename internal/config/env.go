// Package config provides configuration utilities for the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win, and missing files are
// skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(ExpandPath(path)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// SetDefaults registers the default values of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("odoo.model", "attendance.pdf.report")
	v.SetDefault("odoo.button_method", "action_generate_xlsx_report")
	v.SetDefault("odoo.timezone", "Asia/Dhaka")
	v.SetDefault("odoo.language", "en_US")
	v.SetDefault("odoo.rpc_timeout", "60s")
	v.SetDefault("odoo.button_timeout", "120s")
	v.SetDefault("odoo.download_timeout", "180s")
	v.SetDefault("odoo.reuse_wizard", true)

	v.SetDefault("sheets.batch_size", 200)
	v.SetDefault("sheets.token_file", "~/.config/otsync/sheets-token.json")

	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.base_delay", "2s")
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_delay", "1m")
	v.SetDefault("retry.jitter", "1s")

	v.SetDefault("run.continue_on_error", false)
	v.SetDefault("artifacts.dir", ".")
	v.SetDefault("ledger.path", "~/.local/share/otsync/otsync.db")
}
