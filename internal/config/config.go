// Package config provides Viper-based configuration loading for the forge
// toolchain.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds connection settings for the world database. The
// database is only touched when a build applies its output or seeds id
// watermarks from live tables.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN returns the PostgreSQL connection string. Credentials are URL-escaped
// so passwords may contain reserved characters.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// BuildConfig holds the knobs of a single compile run.
type BuildConfig struct {
	// ContentDir is the directory of creature definition YAML files.
	ContentDir string `mapstructure:"content_dir"`
	// OutputDir receives the generated SQL, DBC, and Lua artifacts.
	OutputDir string `mapstructure:"output_dir"`
	// DBCDir optionally points at stock client files to extend in place.
	DBCDir string `mapstructure:"dbc_dir"`
	// Apply executes the generated SQL against the world database.
	Apply bool `mapstructure:"apply"`
	// SeedFromDB raises id watermarks from the live tables before compiling.
	SeedFromDB bool `mapstructure:"seed_from_db"`
	// Seeds maps namespace names to the first id handed out in each.
	Seeds map[string]uint32 `mapstructure:"seeds"`
	// ScriptInstructionLimit bounds Lua syntax-check execution; zero
	// disables the bound.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Build    BuildConfig    `mapstructure:"build"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBuild(c.Build); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if d.Host == "" {
		add("database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		add("database.port must be 1-65535, got %d", d.Port)
	}
	if d.User == "" {
		add("database.user must not be empty")
	}
	if d.Name == "" {
		add("database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		add("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode)
	}
	if d.MaxConns < 1 {
		add("database.max_conns must be >= 1, got %d", d.MaxConns)
	}
	if d.MinConns < 0 {
		add("database.min_conns must be >= 0, got %d", d.MinConns)
	}
	if d.MinConns > d.MaxConns {
		add("database.min_conns must not exceed database.max_conns")
	}
	if d.ConnectTimeout < 0 {
		add("database.connect_timeout must not be negative, got %s", d.ConnectTimeout)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBuild(b BuildConfig) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if b.ContentDir == "" {
		add("build.content_dir must not be empty")
	}
	if b.OutputDir == "" {
		add("build.output_dir must not be empty")
	}
	if b.ScriptInstructionLimit < 0 {
		add("build.script_instruction_limit must be >= 0, got %d", b.ScriptInstructionLimit)
	}
	for ns, seed := range b.Seeds {
		if ns == "" {
			add("build.seeds must not contain an empty namespace name")
			continue
		}
		if seed == 0 {
			add("build.seeds[%s] must be > 0; zero is the null reference", ns)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable overrides with FORGE_ prefix
	v.SetEnvPrefix("FORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "forge")
	v.SetDefault("database.password", "forge")
	v.SetDefault("database.name", "world")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "5s")

	v.SetDefault("build.content_dir", "content")
	v.SetDefault("build.output_dir", "out")
	v.SetDefault("build.dbc_dir", "")
	v.SetDefault("build.apply", false)
	v.SetDefault("build.seed_from_db", false)
	v.SetDefault("build.script_instruction_limit", 1000000)
}
