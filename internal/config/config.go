// Package config loads hpswitch settings from defaults, a YAML file and
// HPSWITCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/hpswitch/pkg/snmp"
)

// Settings is the decoded configuration.
type Settings struct {
	Switch  SwitchSettings  `mapstructure:"switch"`
	SNMP    SNMPSettings    `mapstructure:"snmp"`
	MIB     MIBSettings     `mapstructure:"mib"`
	Output  string          `mapstructure:"output"`
	Logging LoggingSettings `mapstructure:"logging"`
}

// SwitchSettings names the switch to talk to.
type SwitchSettings struct {
	Host      string `mapstructure:"host"`
	Community string `mapstructure:"community"`
}

// SNMPSettings mirrors snmp.Config.
type SNMPSettings struct {
	Port               uint16        `mapstructure:"port"`
	Version            string        `mapstructure:"version"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Retries            int           `mapstructure:"retries"`
	ExponentialTimeout bool          `mapstructure:"exponential_timeout"`
	WalkMode           string        `mapstructure:"walk_mode"`
	MaxRepetitions     uint32        `mapstructure:"max_repetitions"`
	RateLimit          float64       `mapstructure:"rate_limit"`
	RateBurst          int           `mapstructure:"rate_burst"`
}

// MIBSettings lists extra MIB directories and modules.
type MIBSettings struct {
	Dirs    []string `mapstructure:"dirs"`
	Modules []string `mapstructure:"modules"`
}

// LoggingSettings is read by NewLogger.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SNMPConfig returns the client configuration for the configured switch.
func (s *Settings) SNMPConfig() snmp.Config {
	return snmp.Config{
		Target:             s.Switch.Host,
		Port:               s.SNMP.Port,
		Community:          s.Switch.Community,
		Version:            s.SNMP.Version,
		Timeout:            s.SNMP.Timeout,
		Retries:            s.SNMP.Retries,
		ExponentialTimeout: s.SNMP.ExponentialTimeout,
		WalkMode:           snmp.WalkMode(s.SNMP.WalkMode),
		MaxRepetitions:     s.SNMP.MaxRepetitions,
		RateLimit:          s.SNMP.RateLimit,
		RateBurst:          s.SNMP.RateBurst,
	}
}

// Validate checks the settings that do not depend on a switch being
// configured.
func (s *Settings) Validate() error {
	switch s.Output {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q: must be \"json\" or \"yaml\"", s.Output)
	}
	if s.SNMP.Timeout <= 0 {
		return errors.New("snmp.timeout must be positive")
	}
	if s.SNMP.Retries < 0 {
		return errors.New("snmp.retries must not be negative")
	}
	return nil
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("switch.host", "")
	v.SetDefault("switch.community", "")
	v.SetDefault("snmp.port", snmp.DefaultPort)
	v.SetDefault("snmp.version", snmp.DefaultVersion)
	v.SetDefault("snmp.timeout", snmp.DefaultTimeout.String())
	v.SetDefault("snmp.retries", snmp.DefaultRetries)
	v.SetDefault("snmp.exponential_timeout", false)
	v.SetDefault("snmp.walk_mode", string(snmp.WalkGetNext))
	v.SetDefault("snmp.max_repetitions", snmp.DefaultMaxRepetitions)
	v.SetDefault("snmp.rate_limit", 0)
	v.SetDefault("snmp.rate_burst", 1)
	v.SetDefault("mib.dirs", []string{})
	v.SetDefault("mib.modules", []string{})
	v.SetDefault("output", "json")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("hpswitch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hpswitch")
	}

	// Environment variable support: HPSWITCH_SWITCH_COMMUNITY=private
	v.SetEnvPrefix("HPSWITCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// ViperConfig wraps a Viper instance with typed accessors.
type ViperConfig struct {
	v *viper.Viper
}

// New creates a Config backed by the given Viper instance.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

// Settings decodes and validates the full configuration.
func (c *ViperConfig) Settings() (*Settings, error) {
	var s Settings
	if err := c.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
