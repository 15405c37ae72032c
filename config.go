package careauth

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by careauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API           APIConfig
	Session       SessionConfig
	Password      PasswordConfig
	Verification  VerificationConfig
	PasswordReset PasswordResetConfig
	Events        EventsConfig
	Metrics       MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by careauth APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UserAgent      string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by careauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix     string
	PersistEnabled  bool
	RestoreOnBuild  bool
	SessionEncoding string // "binary" (default)
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by careauth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	MinLength int
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationConfig defines a public type used by careauth APIs.
//
// VerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationConfig struct {
	CodeLength     int
	CooldownWindow time.Duration
	CooldownTick   time.Duration
	MaxAttempts    int
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig defines a public type used by careauth APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	RedirectDelay time.Duration
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig defines a public type used by careauth APIs.
//
// EventsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by careauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout: 15 * time.Second,
			UserAgent:      "careauth-go",
		},
		Session: SessionConfig{
			RedisPrefix:     "cas",
			PersistEnabled:  true,
			RestoreOnBuild:  true,
			SessionEncoding: "binary",
		},
		Password: PasswordConfig{
			MinLength: 6,
		},
		Verification: VerificationConfig{
			CodeLength:     6,
			CooldownWindow: 60 * time.Second,
			CooldownTick:   time.Second,
			MaxAttempts:    5,
		},
		PasswordReset: PasswordResetConfig{
			RedirectDelay: 3 * time.Second,
		},
		Events: EventsConfig{
			Enabled:    true,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All sections are value types; a struct copy is a deep copy.
	return cfg
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return errors.New("careauth: API.BaseURL is required")
	}
	if cfg.API.RequestTimeout <= 0 {
		return errors.New("careauth: API.RequestTimeout must be positive")
	}
	if cfg.Password.MinLength < 1 {
		return errors.New("careauth: Password.MinLength must be at least 1")
	}
	if cfg.Verification.CodeLength < 4 || cfg.Verification.CodeLength > 10 {
		return errors.New("careauth: Verification.CodeLength must be between 4 and 10")
	}
	if cfg.Verification.CooldownWindow <= 0 {
		return errors.New("careauth: Verification.CooldownWindow must be positive")
	}
	if cfg.Verification.CooldownTick <= 0 {
		return errors.New("careauth: Verification.CooldownTick must be positive")
	}
	if cfg.Verification.MaxAttempts < 1 {
		return errors.New("careauth: Verification.MaxAttempts must be at least 1")
	}
	if cfg.PasswordReset.RedirectDelay <= 0 {
		return errors.New("careauth: PasswordReset.RedirectDelay must be positive")
	}
	if cfg.Session.SessionEncoding != "" && cfg.Session.SessionEncoding != "binary" {
		return errors.New("careauth: unsupported Session.SessionEncoding")
	}
	return nil
}
