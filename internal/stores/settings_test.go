package stores

import (
	"context"
	"strings"
	"testing"
)

func TestSettingsStore_AbsentKeyYieldsDefaults(t *testing.T) {
	_, rdb, done := newTestRedis(t)
	defer done()

	store := NewSettingsStore(rdb, "")

	settings, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.MFA != "required" {
		t.Fatalf("expected default mfa mode, got %q", settings.MFA)
	}
	if settings.FailedLoginAttempts != 5 {
		t.Fatalf("expected default threshold 5, got %d", settings.FailedLoginAttempts)
	}
}

func TestSettingsStore_AttemptsAcceptsNumberOrString(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `{"mfa":"optional","failedLoginAttempts":7}`, 7},
		{"string", `{"mfa":"optional","failedLoginAttempts":"7"}`, 7},
		{"padded string", `{"mfa":"optional","failedLoginAttempts":" 7 "}`, 7},
		{"garbage", `{"mfa":"optional","failedLoginAttempts":"lots"}`, 5},
		{"zero", `{"mfa":"optional","failedLoginAttempts":0}`, 5},
		{"negative", `{"mfa":"optional","failedLoginAttempts":-3}`, 5},
		{"missing", `{"mfa":"optional"}`, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mr, rdb, done := newTestRedis(t)
			defer done()

			if err := mr.Set("systemSettings", tc.raw); err != nil {
				t.Fatalf("seed raw settings: %v", err)
			}

			store := NewSettingsStore(rdb, "")
			settings, err := store.Get(context.Background())
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if settings.FailedLoginAttempts != tc.want {
				t.Fatalf("expected %d attempts, got %d", tc.want, settings.FailedLoginAttempts)
			}
		})
	}
}

func TestSettingsStore_MissingMFAFieldDefaults(t *testing.T) {
	mr, rdb, done := newTestRedis(t)
	defer done()

	if err := mr.Set("systemSettings", `{"failedLoginAttempts":3}`); err != nil {
		t.Fatalf("seed raw settings: %v", err)
	}

	store := NewSettingsStore(rdb, "")
	settings, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.MFA != "required" {
		t.Fatalf("expected mfa default required, got %q", settings.MFA)
	}
	if settings.FailedLoginAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", settings.FailedLoginAttempts)
	}
}

func TestSettingsStore_PutWritesAttemptsAsString(t *testing.T) {
	mr, rdb, done := newTestRedis(t)
	defer done()

	store := NewSettingsStore(rdb, "")
	ctx := context.Background()

	err := store.Put(ctx, SystemSettings{
		MFA:                 "optional",
		FailedLoginAttempts: 7,
		MFAEmail:            "ops@example.com",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := mr.Get("systemSettings")
	if err != nil {
		t.Fatalf("read raw value: %v", err)
	}
	if !strings.Contains(raw, `"failedLoginAttempts":"7"`) {
		t.Fatalf("expected attempts written as a string, got %s", raw)
	}
	if !strings.Contains(raw, `"mfaEmail":"ops@example.com"`) {
		t.Fatalf("expected mfaEmail in %s", raw)
	}

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.MFA != "optional" || settings.FailedLoginAttempts != 7 {
		t.Fatalf("round trip mismatch: %+v", settings)
	}
}

func TestSettingsStore_PutNormalizesBlankAndNonPositive(t *testing.T) {
	_, rdb, done := newTestRedis(t)
	defer done()

	store := NewSettingsStore(rdb, "")
	ctx := context.Background()

	if err := store.Put(ctx, SystemSettings{FailedLoginAttempts: -1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.MFA != "required" || settings.FailedLoginAttempts != 5 {
		t.Fatalf("expected normalized defaults, got %+v", settings)
	}
}
