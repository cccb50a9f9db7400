// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/cubegate/internal/palo"
	"github.com/tomtom215/cubegate/internal/pool"
	"github.com/tomtom215/cubegate/internal/validation"
)

// Config is the complete gateway configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Palo     PaloConfig     `koanf:"palo"`
	Breaker  BreakerConfig  `koanf:"breaker"`
	Forms    FormsConfig    `koanf:"forms"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Tracing  TracingConfig  `koanf:"tracing"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// PaloConfig describes the upstream OLAP server and the session pool.
type PaloConfig struct {
	Server   string `koanf:"server" validate:"required"`
	Port     string `koanf:"port" validate:"required,numeric"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password"`

	// AllowDatabases restricts requests to these databases when non-empty.
	AllowDatabases []string `koanf:"allow_databases"`
	AllowSetData   bool     `koanf:"allow_set_data"`

	MaxSessions    int           `koanf:"max_sessions" validate:"min=1"`
	SaveSessions   int           `koanf:"save_sessions" validate:"min=0"`
	SafetyMargin   time.Duration `koanf:"safety_margin" validate:"gte=0"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gte=0"`
	MaxCells       int           `koanf:"max_cells" validate:"min=1"`
	MaxRange       int           `koanf:"max_range" validate:"min=1"`

	// LoginRate is logins per second per endpoint; zero disables throttling.
	LoginRate  float64 `koanf:"login_rate" validate:"gte=0"`
	LoginBurst int     `koanf:"login_burst" validate:"gte=0"`

	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
	ShutdownGrace time.Duration `koanf:"shutdown_grace" validate:"gt=0"`
}

// Endpoint returns the configured server endpoint.
func (p PaloConfig) Endpoint() palo.Endpoint {
	return palo.NewEndpoint(p.Server, p.Port)
}

// Credentials returns the login credentials.
func (p PaloConfig) Credentials() palo.Credentials {
	return palo.Credentials{User: p.User, Password: p.Password}
}

// PoolConfig returns the session pool settings.
func (p PaloConfig) PoolConfig() pool.Config {
	pc := pool.DefaultConfig()
	pc.MaxSessions = p.MaxSessions
	pc.SaveSessions = p.SaveSessions
	pc.SafetyMargin = p.SafetyMargin
	pc.LoginRate = p.LoginRate
	pc.LoginBurst = p.LoginBurst
	return pc
}

// BreakerConfig tunes the upstream circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"min=1"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
}

// ClientConfig returns the protocol client settings.
func (c *Config) ClientConfig() palo.Config {
	return palo.Config{
		Timeout: c.Palo.RequestTimeout,
		Breaker: palo.BreakerConfig{
			MaxRequests:      c.Breaker.MaxRequests,
			Interval:         c.Breaker.Interval,
			Timeout:          c.Breaker.Timeout,
			FailureThreshold: c.Breaker.FailureThreshold,
		},
	}
}

// FormsConfig locates row definition files.
type FormsConfig struct {
	Dir   string `koanf:"dir"`
	Watch bool   `koanf:"watch"`

	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// APIConfig holds request handling limits.
type APIConfig struct {
	// MaxBody bounds PUT bodies, in humanized bytes ("1MB", "512k").
	MaxBody string `koanf:"max_body" validate:"required"`
}

// MaxBodyBytes parses MaxBody.
func (a APIConfig) MaxBodyBytes() (int64, error) {
	n, err := humanize.ParseBytes(a.MaxBody)
	if err != nil {
		return 0, fmt.Errorf("api.max_body: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("api.max_body must be greater than 0")
	}
	return int64(n), nil
}

// SecurityConfig holds CORS, rate limiting and admin authentication.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// AdminJWTSecret enables bearer token checks on admin routes.
	AdminJWTSecret string `koanf:"admin_jwt_secret" validate:"omitempty,min=32"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// TracingConfig configures OpenTelemetry export. An empty endpoint with
// tracing enabled writes spans to stdout.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Service     string  `koanf:"service" validate:"required"`
	Endpoint    string  `koanf:"endpoint" validate:"omitempty,url"`
	SampleRatio float64 `koanf:"sample_ratio" validate:"gte=0,lte=1"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Palo: PaloConfig{
			Server:         "localhost",
			Port:           palo.DefaultPort,
			User:           "admin",
			MaxSessions:    3,
			SaveSessions:   2,
			SafetyMargin:   10 * time.Second,
			RequestTimeout: 60 * time.Second,
			MaxCells:       1000,
			MaxRange:       1000,
			LoginRate:      5,
			LoginBurst:     3,
			SweepInterval:  30 * time.Second,
			ShutdownGrace:  5 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          2 * time.Minute,
			FailureThreshold: 10,
		},
		Forms: FormsConfig{
			Dir:       "forms",
			Watch:     true,
			CacheSize: 128,
		},
		API: APIConfig{
			MaxBody: "1MB",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Service:     "cubegate",
			SampleRatio: 1,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if _, err := c.API.MaxBodyBytes(); err != nil {
		return err
	}
	if c.Palo.SaveSessions > c.Palo.MaxSessions {
		return fmt.Errorf("palo.save_sessions (%d) must not exceed palo.max_sessions (%d)",
			c.Palo.SaveSessions, c.Palo.MaxSessions)
	}
	return nil
}
