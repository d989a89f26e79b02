package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/vitals/internal/errors"
)

// EnvPrefix prefixes environment overrides, e.g. VITALS_DB.
const EnvPrefix = "VITALS"

// MaxToolTimeout bounds external diagnostic commands so a tick cannot stall.
const MaxToolTimeout = time.Second

// Config carries runtime options for vitals.
type Config struct {
	DB             string        `mapstructure:"db" yaml:"db"`
	Interval       time.Duration `mapstructure:"interval" yaml:"interval"`
	History        int           `mapstructure:"history" yaml:"history"`
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	GPU            bool          `mapstructure:"gpu" yaml:"gpu"`
	SensorsCommand string        `mapstructure:"sensors_command" yaml:"sensors_command"`
	ToolTimeout    time.Duration `mapstructure:"tool_timeout" yaml:"tool_timeout"`
	ThermalRoot    string        `mapstructure:"thermal_root" yaml:"thermal_root"`
	Debug          bool          `mapstructure:"debug" yaml:"debug"`
	Log            LogConfig     `mapstructure:"log" yaml:"log"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

func Default() Config {
	return Config{
		DB:             "monitor.db",
		Interval:       time.Second,
		History:        120,
		Headless:       false,
		GPU:            true,
		SensorsCommand: "sensors",
		ToolTimeout:    time.Second,
		ThermalRoot:    "/sys/class/thermal",
		Log:            LogConfig{Level: "info"},
	}
}

// MarshalYAML writes durations in their string form so the output can be
// fed back through --config.
func (c Config) MarshalYAML() (any, error) {
	return struct {
		DB             string    `yaml:"db"`
		Interval       string    `yaml:"interval"`
		History        int       `yaml:"history"`
		Headless       bool      `yaml:"headless"`
		GPU            bool      `yaml:"gpu"`
		SensorsCommand string    `yaml:"sensors_command"`
		ToolTimeout    string    `yaml:"tool_timeout"`
		ThermalRoot    string    `yaml:"thermal_root"`
		Debug          bool      `yaml:"debug"`
		Log            LogConfig `yaml:"log"`
	}{
		DB:             c.DB,
		Interval:       c.Interval.String(),
		History:        c.History,
		Headless:       c.Headless,
		GPU:            c.GPU,
		SensorsCommand: c.SensorsCommand,
		ToolTimeout:    c.ToolTimeout.String(),
		ThermalRoot:    c.ThermalRoot,
		Debug:          c.Debug,
		Log:            c.Log,
	}, nil
}

// LogLevel is the effective zap level name.
func (c Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.Log.Level
}

// RegisterFlags defines the command-line overrides on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("db", d.DB, "path to the SQLite measurements file")
	fs.Duration("interval", d.Interval, "sampling interval")
	fs.Int("history", d.History, "points of history kept per metric")
	fs.Bool("headless", d.Headless, "sample without the terminal dashboard")
	fs.Bool("gpu", d.GPU, "sample the first discrete GPU")
	fs.Bool("debug", d.Debug, "enable debug logging")
	fs.String("log-file", d.Log.File, "write logs to this file")
}

var flagKeys = map[string]string{
	"db":       "db",
	"interval": "interval",
	"history":  "history",
	"headless": "headless",
	"gpu":      "gpu",
	"debug":    "debug",
	"log-file": "log.file",
}

// Load merges defaults, the optional YAML file at path, VITALS_* environment
// variables and flags, in increasing priority, then validates the result.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.WrapWithCode(err, errors.ErrConfig,
						"Failed to bind flag --"+name, "")
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file "+path,
				"Check the file exists and is valid YAML")
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Durations look like 1s or 500ms")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db", d.DB)
	v.SetDefault("interval", d.Interval.String())
	v.SetDefault("history", d.History)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("gpu", d.GPU)
	v.SetDefault("sensors_command", d.SensorsCommand)
	v.SetDefault("tool_timeout", d.ToolTimeout.String())
	v.SetDefault("thermal_root", d.ThermalRoot)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Validate rejects values the sampler cannot honor.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return errors.New(errors.ErrConfig, "Store path is empty", "Pass --db with a file path")
	}
	if c.Interval < 100*time.Millisecond {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Interval too short: %s", c.Interval),
			"Minimum interval is 100ms")
	}
	if c.History < 2 || c.History > 86400 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("History length out of range: %d", c.History),
			"Use between 2 and 86400 points")
	}
	if c.ToolTimeout <= 0 || c.ToolTimeout > MaxToolTimeout {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Tool timeout out of range: %s", c.ToolTimeout),
			"External commands must finish within 1s")
	}
	return nil
}
