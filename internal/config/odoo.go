package config

import (
	"fmt"
	"os"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/odoo"
	"github.com/spf13/viper"
)

// LoadOdooConfig reads the Odoo connection settings. Values from the config
// file or OTSYNC_ variables take precedence over the plain ODOO_ variables.
func LoadOdooConfig(v *viper.Viper) (*odoo.Config, error) {
	config := odoo.DefaultConfig()

	config.BaseURL = firstNonEmpty(v.GetString("odoo.url"), os.Getenv("ODOO_URL"))
	config.Database = firstNonEmpty(v.GetString("odoo.db"), os.Getenv("ODOO_DB"))
	config.Username = firstNonEmpty(v.GetString("odoo.username"), os.Getenv("ODOO_USERNAME"))
	config.Password = firstNonEmpty(v.GetString("odoo.password"), os.Getenv("ODOO_PASSWORD"))

	if s := v.GetString("odoo.model"); s != "" {
		config.Model = s
	}
	if s := v.GetString("odoo.button_method"); s != "" {
		config.ButtonMethod = s
	}
	if s := v.GetString("odoo.timezone"); s != "" {
		config.Timezone = s
	}
	if s := v.GetString("odoo.language"); s != "" {
		config.Language = s
	}
	if d := v.GetDuration("odoo.rpc_timeout"); d > 0 {
		config.RPCTimeout = d
	}
	if d := v.GetDuration("odoo.button_timeout"); d > 0 {
		config.ButtonTimeout = d
	}
	if d := v.GetDuration("odoo.download_timeout"); d > 0 {
		config.DownloadTimeout = d
	}
	if v.IsSet("odoo.reuse_wizard") {
		config.ReuseWizard = v.GetBool("odoo.reuse_wizard")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
