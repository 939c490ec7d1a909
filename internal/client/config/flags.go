package config

import (
	"time"

	"github.com/spf13/pflag"
)

const (
	FlagConfig    = "config"
	FlagAPI       = "api"
	FlagDB        = "db"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagTimeout   = "timeout"
	FlagTokenTTL  = "token-ttl"
)

// RegisterFlags defines the configuration flags on fs. Defaults shown in help
// are the built-in ones; only flags set explicitly override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a .json or .yaml config file")
	fs.String(FlagAPI, d.APIBaseURL, "backend API base URL")
	fs.String(FlagDB, d.DatabasePath, "local database file")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text or json")
	fs.Duration(FlagTimeout, d.RequestTimeout, "per-request timeout")
	fs.Duration(FlagTokenTTL, d.TokenTTL, "how long a login is remembered")
}

// applyFlags copies explicitly set flags into cfg.
func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{FlagAPI, &cfg.APIBaseURL},
		{FlagDB, &cfg.DatabasePath},
		{FlagLogLevel, &cfg.LogLevel},
		{FlagLogFormat, &cfg.LogFormat},
	}
	for _, s := range strs {
		if fs.Lookup(s.name) == nil || !fs.Changed(s.name) {
			continue
		}
		v, err := fs.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = v
	}

	durs := []struct {
		name string
		dst  *time.Duration
	}{
		{FlagTimeout, &cfg.RequestTimeout},
		{FlagTokenTTL, &cfg.TokenTTL},
	}
	for _, d := range durs {
		if fs.Lookup(d.name) == nil || !fs.Changed(d.name) {
			continue
		}
		v, err := fs.GetDuration(d.name)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	return nil
}
