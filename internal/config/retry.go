package config

import (
	"fmt"

	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/service"
	"github.com/spf13/viper"
)

// LoadRetryOptions reads the retry schedule applied to each remote step.
func LoadRetryOptions(v *viper.Viper) (service.RetryOptions, error) {
	opts := service.DefaultRetryOptions()

	if v.IsSet("retry.max_attempts") {
		opts.MaxAttempts = v.GetInt("retry.max_attempts")
	}
	if v.IsSet("retry.base_delay") {
		opts.InitialDelay = v.GetDuration("retry.base_delay")
	}
	if v.IsSet("retry.multiplier") {
		opts.Multiplier = v.GetFloat64("retry.multiplier")
	}
	if v.IsSet("retry.max_delay") {
		opts.MaxDelay = v.GetDuration("retry.max_delay")
	}
	if v.IsSet("retry.jitter") {
		opts.Jitter = v.GetDuration("retry.jitter")
	}
	opts.TransientOnly = v.GetBool("retry.transient_only")

	switch {
	case opts.MaxAttempts < 1:
		return opts, fmt.Errorf("%w: retry.max_attempts must be at least 1", common.ErrInvalidConfig)
	case opts.InitialDelay < 0 || opts.MaxDelay < 0 || opts.Jitter < 0:
		return opts, fmt.Errorf("%w: retry delays cannot be negative", common.ErrInvalidConfig)
	case opts.Multiplier < 1:
		return opts, fmt.Errorf("%w: retry.multiplier must be at least 1", common.ErrInvalidConfig)
	}
	return opts, nil
}
