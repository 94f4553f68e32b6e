package authgate

import (
	"errors"
	"strings"
	"time"

	"github.com/pulsekjo/authgate/internal/limiters"
)

const (
	// LockDuration is an exported constant or variable used by the login gate.
	LockDuration = limiters.LockDuration
	// OTPLifetime is an exported constant or variable used by the login gate.
	OTPLifetime = 5 * time.Minute
	// DefaultMaxFailedAttempts is an exported constant or variable used by the login gate.
	DefaultMaxFailedAttempts = 5
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Keys    KeyConfig
	Session SessionConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
KEY CONFIG
====================================
*/

// KeyConfig defines a public type used by authgate APIs.
//
// KeyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// The defaults match the external store contract consumed by downstream
// pages; change them only when every consumer of the keyspace changes too.
type KeyConfig struct {
	LockoutPrefix string // default "loginLockout_"
	SettingsKey   string // default "systemSettings"
	OTPKey        string // default "currentOTP"
	SessionKey    string // default "currentUser"
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authgate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	SigningKey []byte        // empty = no signed session tokens
	TokenTTL   time.Duration // 0 = tokens without expiry claim
}

// AuditConfig defines a public type used by authgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Keys: KeyConfig{
			LockoutPrefix: "loginLockout_",
			SettingsKey:   "systemSettings",
			OTPKey:        "currentOTP",
			SessionKey:    "currentUser",
		},
		Session: SessionConfig{
			TokenTTL: 12 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func applyKeyDefaults(cfg *Config) {
	def := defaultConfig().Keys
	if cfg.Keys.LockoutPrefix == "" {
		cfg.Keys.LockoutPrefix = def.LockoutPrefix
	}
	if cfg.Keys.SettingsKey == "" {
		cfg.Keys.SettingsKey = def.SettingsKey
	}
	if cfg.Keys.OTPKey == "" {
		cfg.Keys.OTPKey = def.OTPKey
	}
	if cfg.Keys.SessionKey == "" {
		cfg.Keys.SessionKey = def.SessionKey
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.SigningKey = cloneBytes(cfg.Session.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Keys
	for _, key := range []string{
		c.Keys.LockoutPrefix,
		c.Keys.SettingsKey,
		c.Keys.OTPKey,
		c.Keys.SessionKey,
	} {
		if strings.TrimSpace(key) == "" {
			return errors.New("Keys must not be blank")
		}
	}
	if c.Keys.SettingsKey == c.Keys.OTPKey ||
		c.Keys.SettingsKey == c.Keys.SessionKey ||
		c.Keys.OTPKey == c.Keys.SessionKey {
		return errors.New("Keys must be distinct")
	}

	// Session
	if c.Session.TokenTTL < 0 {
		return errors.New("Session TokenTTL must be >= 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
