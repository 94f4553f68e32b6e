package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMFAMode           = "required"
	defaultMaxFailedAttempts = 5
)

var (
	ErrSettingsBackend = errors.New("settings backend unavailable")
)

// SystemSettings is the parsed operator policy. Field defaults are applied
// per field: a present record missing a field behaves the same as an absent
// record for that field.
type SystemSettings struct {
	MFA                 string
	FailedLoginAttempts int
	MFAEmail            string
}

// settingsRecord is the wire shape. FailedLoginAttempts is kept raw because
// the external contract accepts either a JSON string or a JSON number.
type settingsRecord struct {
	MFA                 string          `json:"mfa"`
	FailedLoginAttempts json.RawMessage `json:"failedLoginAttempts"`
	MFAEmail            string          `json:"mfaEmail"`
}

type settingsWireOut struct {
	MFA                 string `json:"mfa"`
	FailedLoginAttempts string `json:"failedLoginAttempts"`
	MFAEmail            string `json:"mfaEmail"`
}

// SettingsStore reads and writes the shared operator policy record.
type SettingsStore struct {
	redis redis.UniversalClient
	key   string
}

func NewSettingsStore(redisClient redis.UniversalClient, key string) *SettingsStore {
	if key == "" {
		key = "systemSettings"
	}
	return &SettingsStore{
		redis: redisClient,
		key:   key,
	}
}

// Defaults returns the policy used when no settings record exists.
func Defaults() SystemSettings {
	return SystemSettings{
		MFA:                 defaultMFAMode,
		FailedLoginAttempts: defaultMaxFailedAttempts,
	}
}

// Get returns the current settings with per-field defaults applied.
// An absent key yields Defaults() without error.
func (s *SettingsStore) Get(ctx context.Context) (SystemSettings, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Defaults(), nil
		}
		return SystemSettings{}, fmt.Errorf("%w: %v", ErrSettingsBackend, err)
	}

	var rec settingsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SystemSettings{}, fmt.Errorf("%w: %v", ErrSettingsBackend, err)
	}

	out := SystemSettings{
		MFA:                 rec.MFA,
		FailedLoginAttempts: parseAttempts(rec.FailedLoginAttempts),
		MFAEmail:            rec.MFAEmail,
	}
	if out.MFA == "" {
		out.MFA = defaultMFAMode
	}
	return out, nil
}

// Put overwrites the settings record. FailedLoginAttempts is serialized as a
// string for parity with the external contract.
func (s *SettingsStore) Put(ctx context.Context, settings SystemSettings) error {
	attempts := settings.FailedLoginAttempts
	if attempts <= 0 {
		attempts = defaultMaxFailedAttempts
	}
	mfa := settings.MFA
	if mfa == "" {
		mfa = defaultMFAMode
	}

	encoded, err := json.Marshal(settingsWireOut{
		MFA:                 mfa,
		FailedLoginAttempts: strconv.Itoa(attempts),
		MFAEmail:            settings.MFAEmail,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSettingsBackend, err)
	}
	if err := s.redis.Set(ctx, s.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSettingsBackend, err)
	}
	return nil
}

// parseAttempts accepts a JSON number or a numeric JSON string. Anything
// missing, unparseable, or non-positive falls back to the default.
func parseAttempts(raw json.RawMessage) int {
	if len(raw) == 0 {
		return defaultMaxFailedAttempts
	}

	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		if asInt > 0 {
			return asInt
		}
		return defaultMaxFailedAttempts
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(asString))
		if err == nil && n > 0 {
			return n
		}
	}
	return defaultMaxFailedAttempts
}
