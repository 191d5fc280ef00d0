// Package config loads exprsense settings from a YAML file, EXPRSENSE_*
// environment variables and built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/oakwood-commons/exprsense/internal/completion"
)

// EnvPrefix is prepended to every environment override, e.g.
// EXPRSENSE_TARGET_NODE or EXPRSENSE_COMPLETION_LOOKBACK.
const EnvPrefix = "EXPRSENSE"

// Config is the resolved configuration.
type Config struct {
	LogLevel   string           `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	DataFile   string           `mapstructure:"data_file" yaml:"data_file" json:"data_file"`
	TargetNode string           `mapstructure:"target_node" yaml:"target_node" json:"target_node"`
	Completion CompletionConfig `mapstructure:"completion" yaml:"completion" json:"completion"`
}

// CompletionConfig tunes the bracket provider. Denylist and skip keys extend
// the built-in lists.
type CompletionConfig struct {
	SkipKeys []string `mapstructure:"skip_keys" yaml:"skip_keys" json:"skip_keys"`
	Denylist []string `mapstructure:"denylist" yaml:"denylist" json:"denylist"`
	Lookback int      `mapstructure:"lookback" yaml:"lookback" json:"lookback"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("data_file", "")
	v.SetDefault("target_node", "")
	v.SetDefault("completion.skip_keys", []string{})
	v.SetDefault("completion.denylist", []string{})
	v.SetDefault("completion.lookback", completion.DefaultLookback)
}

// Load reads configuration from path, or from the XDG location when path is
// empty. A missing XDG file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := newViper()
	if resolved := ResolvePath(path); resolved != "" {
		v.SetConfigFile(resolved)
		if filepath.Ext(resolved) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", resolved)
		}
	}
	return LoadWithViper(v)
}

// LoadWithViper decodes and validates configuration from v. A leading ~ in
// data_file is expanded to the home directory.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	dataFile, err := homedir.Expand(cfg.DataFile)
	if err != nil {
		return nil, errors.Wrapf(err, "expand data_file %q", cfg.DataFile)
	}
	cfg.DataFile = dataFile
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Validate rejects values the provider cannot use.
func (c *Config) Validate() error {
	if c.Completion.Lookback <= 0 {
		return errors.WithHint(
			errors.Newf("completion.lookback must be positive, got %d", c.Completion.Lookback),
			"remove the setting to use the default window",
		)
	}
	return nil
}

// ProviderOptions converts the completion settings to provider options.
func (c *Config) ProviderOptions() []completion.ProviderOption {
	opts := []completion.ProviderOption{completion.WithLookback(c.Completion.Lookback)}
	if len(c.Completion.Denylist) > 0 {
		opts = append(opts, completion.WithDenylist(c.Completion.Denylist...))
	}
	if len(c.Completion.SkipKeys) > 0 {
		opts = append(opts, completion.WithSkipKeys(c.Completion.SkipKeys...))
	}
	return opts
}

// ResolvePath returns explicit if set, otherwise
// $XDG_CONFIG_HOME/exprsense/config.yaml or ~/.config/exprsense/config.yaml
// when that file exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, "exprsense", "config.yaml")
	} else if home, err := homedir.Dir(); err == nil {
		candidate = filepath.Join(home, ".config", "exprsense", "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}
