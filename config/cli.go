// config/cli.go
package config

import (
	"fmt"
	"strings"

	"github.com/dalemusser/urlkit/logging"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Output formats understood by the CLI.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// CLIConfig holds the settings of the urlkit command-line tool.
type CLIConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Output   string `mapstructure:"output"`

	// Location is the URL used for "-" or a missing URL argument.
	Location string `mapstructure:"default_location"`
}

// RegisterCLIFlags registers the CLI flags on fs. Call before fs.Parse.
func RegisterCLIFlags(fs *pflag.FlagSet) {
	fs.String("log_level", "warn", "Log level for diagnostics on stderr")
	fs.StringP("output", "o", OutputText, "Output format: text, json or yaml")
	fs.StringP("location", "l", "", "URL used when the URL argument is \"-\" or omitted")
}

// LoadCLI resolves the CLI configuration from an already parsed fs using
// the same precedence as the service: flags > env > config file > defaults.
// The location flag maps to the shared default_location key.
func LoadCLI(logger *zap.Logger, fs *pflag.FlagSet) (*CLIConfig, error) {
	v := newViper()
	for _, k := range []string{"log_level", "output", "default_location"} {
		_ = v.BindEnv(k)
	}
	mergeConfigFiles(logger, v)

	v.SetDefault("log_level", "warn")
	v.SetDefault("output", OutputText)
	v.SetDefault("default_location", "")

	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		key := f.Name
		if key == "location" {
			key = "default_location"
		}
		_ = v.BindPFlag(key, f)
	})

	var cfg CLIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode cli config: %w", err)
	}
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))

	switch cfg.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return nil, fmt.Errorf("invalid output %q: want text, json or yaml", cfg.Output)
	}
	if !logging.IsValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return &cfg, nil
}
