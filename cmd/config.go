package cmd

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the settings of the listing command after flags, the config
// file and WALKDIR_* environment variables have been merged by viper.
type Config struct {
	FollowLinks bool   `mapstructure:"follow-links"`
	MinDepth    int    `mapstructure:"min-depth" validate:"gte=0"`
	MaxDepth    int    `mapstructure:"max-depth" validate:"gte=-1"` // -1 is unbounded
	Sort        bool   `mapstructure:"sort"`
	Format      string `mapstructure:"format" validate:"oneof=text json yaml tree"`
	ErrorMode   string `mapstructure:"error-mode" validate:"oneof=continue stop"`
	Stats       bool   `mapstructure:"stats"`
	Verbose     bool   `mapstructure:"verbose"`
	Silent      bool   `mapstructure:"silent"`
}

var validate = newValidator()

// newValidator reports fields by their config keys rather than Go names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// loadConfig unmarshals v into a Config and validates it.
func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks struct tags, then the rules that span fields.
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if cfg.MaxDepth >= 0 && cfg.MinDepth > cfg.MaxDepth {
		return fmt.Errorf("min-depth (%d) must not exceed max-depth (%d)", cfg.MinDepth, cfg.MaxDepth)
	}
	if cfg.Verbose && cfg.Silent {
		return errors.New("verbose and silent are mutually exclusive")
	}
	return nil
}

// formatValidationError reports the first failed field by its config key.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("invalid %s: validation failed on '%s' tag (value: %v)",
			e.Field(), e.Tag(), e.Value())
	}
	return err
}
