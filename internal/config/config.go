// Package config provides Viper-based configuration loading for the Daifugo
// room server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the TCP listener settings for one room server instance.
type ServerConfig struct {
	// Host is the bind address for the room listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the room listener. The port selects the room
	// profile (win points, time limit, tournament mode) from the room table.
	Port int `mapstructure:"port"`
	// HandshakeTimeout bounds the hello/token exchange for a new
	// connection. Reads after authentication are unbounded; idle players
	// are never disconnected.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	// WriteTimeout is the per-write timeout for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// OutboxBuffer is the per-client outbound message buffer size.
	OutboxBuffer int `mapstructure:"outbox_buffer"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings for the tracker.
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
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// TournamentConfig holds the tournament scoring window settings.
// Nonzero tournament deltas are accepted only during a narrow nightly
// window that alternates by calendar day.
type TournamentConfig struct {
	// Timezone is the IANA reference zone for window checks.
	Timezone string `mapstructure:"timezone"`
	// EvenDayHour is the scoring hour on even days of the month.
	EvenDayHour int `mapstructure:"even_day_hour"`
	// OddDayHour is the scoring hour on odd days of the month.
	OddDayHour int `mapstructure:"odd_day_hour"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tournament TournamentConfig `mapstructure:"tournament"`
	Rooms      []Room           `mapstructure:"rooms"`
}

// RoomForPort returns the room profile for the given listening port.
//
// Postcondition: Returns (room, true) if the port is in the room table,
// or (zero, false) otherwise.
func (c Config) RoomForPort(port int) (Room, bool) {
	for _, r := range c.Rooms {
		if r.Port == port {
			return r, true
		}
	}
	return Room{}, false
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTournament(c.Tournament); err != nil {
		errs = append(errs, err.Error())
	}
	if err := ValidateRooms(c.Rooms); err != nil {
		errs = append(errs, err.Error())
	}
	if _, ok := c.RoomForPort(c.Server.Port); len(c.Rooms) > 0 && !ok {
		errs = append(errs, fmt.Sprintf("server.port %d has no entry in the room table", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.HandshakeTimeout < 0 {
		errs = append(errs, "server.handshake_timeout must not be negative")
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.OutboxBuffer < 1 {
		errs = append(errs, fmt.Sprintf("server.outbox_buffer must be >= 1, got %d", s.OutboxBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

func validateTournament(t TournamentConfig) error {
	var errs []string
	if t.Timezone == "" {
		errs = append(errs, "tournament.timezone must not be empty")
	}
	if t.EvenDayHour < 0 || t.EvenDayHour > 23 {
		errs = append(errs, fmt.Sprintf("tournament.even_day_hour must be 0-23, got %d", t.EvenDayHour))
	}
	if t.OddDayHour < 0 || t.OddDayHour > 23 {
		errs = append(errs, fmt.Sprintf("tournament.odd_day_hour must be 0-23, got %d", t.OddDayHour))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DAIFUGO_ prefix
	v.SetEnvPrefix("DAIFUGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = DefaultRooms()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = DefaultRooms()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 23548)
	v.SetDefault("server.handshake_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.outbox_buffer", 64)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "daifugo")
	v.SetDefault("database.password", "daifugo")
	v.SetDefault("database.name", "daifugo")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("tournament.timezone", "Asia/Tokyo")
	v.SetDefault("tournament.even_day_hour", 21)
	v.SetDefault("tournament.odd_day_hour", 20)
}
