// Package config loads runtime settings from defaults, an optional YAML file
// and ACCOUNTABLE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dukerupert/accountable/internal/penalty"
	"github.com/dukerupert/accountable/internal/window"
)

const (
	envPrefix = "ACCOUNTABLE"

	KeyDBPath           = "db_path"
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyLogFile          = "log_file"
	KeyTimezone         = "timezone"
	KeyWindowStartHour  = "window_start_hour"
	KeyWindowEndHour    = "window_end_hour"
	KeyEnforceWindow    = "enforce_window"
	KeyPenaltyStacking  = "penalty_stacking"
	KeyRolloverInterval = "rollover_interval"
	KeyRolloverWorkers  = "rollover_workers"
)

type Config struct {
	DBPath           string
	LogLevel         string
	LogFormat        string
	LogFile          string
	Timezone         string
	Location         *time.Location
	Window           window.Window
	EnforceWindow    bool
	Stacking         penalty.Stacking
	RolloverInterval time.Duration
	RolloverWorkers  int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDBPath, "accountable.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTimezone, "Local")
	v.SetDefault(KeyWindowStartHour, window.DefaultStartHour)
	v.SetDefault(KeyWindowEndHour, window.DefaultEndHour)
	v.SetDefault(KeyEnforceWindow, false)
	v.SetDefault(KeyPenaltyStacking, string(penalty.Additive))
	v.SetDefault(KeyRolloverInterval, time.Minute)
	v.SetDefault(KeyRolloverWorkers, 4)
}

var keys = []string{
	KeyDBPath, KeyLogLevel, KeyLogFormat, KeyLogFile, KeyTimezone,
	KeyWindowStartHour, KeyWindowEndHour, KeyEnforceWindow,
	KeyPenaltyStacking, KeyRolloverInterval, KeyRolloverWorkers,
}

// Load reads path when it is non-empty; a named file that does not exist is
// an error. Environment variables override the file, and flags in fs whose
// name matches a key (with dashes for underscores) override everything when
// set. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range keys {
			if f := fs.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper
// instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBPath:           v.GetString(KeyDBPath),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        strings.ToLower(v.GetString(KeyLogFormat)),
		LogFile:          v.GetString(KeyLogFile),
		Timezone:         v.GetString(KeyTimezone),
		EnforceWindow:    v.GetBool(KeyEnforceWindow),
		RolloverInterval: v.GetDuration(KeyRolloverInterval),
		RolloverWorkers:  v.GetInt(KeyRolloverWorkers),
	}

	var errs []error
	if cfg.DBPath == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyDBPath))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, cfg.LogFormat))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyTimezone, err))
		loc = time.Local
	}
	cfg.Location = loc

	w, err := window.New(v.GetInt(KeyWindowStartHour), v.GetInt(KeyWindowEndHour), loc)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Window = w

	if cfg.Stacking, err = penalty.ParseStacking(v.GetString(KeyPenaltyStacking)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyPenaltyStacking, err))
	}
	if cfg.RolloverInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyRolloverInterval))
	}
	if cfg.RolloverWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyRolloverWorkers))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
