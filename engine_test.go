package authgate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pulsekjo/authgate/roster"
	"github.com/redis/go-redis/v9"
)

// testClockBase is the fixed "wall clock" used by engine tests so lockout
// and OTP timestamps are deterministic.
var testClockBase = time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return mr, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func testDirectory() *roster.Directory {
	return roster.NewDirectory([]roster.Record{
		{Identity: "alice", Secret: "alice-pass-1", Role: "principal"},
		{Identity: "bob", Secret: "bob-pass-1", Role: "business_user"},
		{Identity: "carol", Secret: "carol-pass-1", Role: "auditor"},
		{Identity: "dup", Secret: "dup-pass", Role: "master"},
		{Identity: "dup", Secret: "dup-pass", Role: "business_user"},
	})
}

// newTestEngine builds an engine over miniredis with the standard roster,
// metrics on, and a frozen clock. Callers adjust the builder through opts.
func newTestEngine(t *testing.T, opts ...func(*Builder)) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb, closeRedis := newTestRedis(t)

	b := New().
		WithRedis(rdb).
		WithDirectory(testDirectory()).
		WithNotifier(NoOpNotifier{}).
		WithMetricsEnabled(true)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		closeRedis()
		t.Fatalf("build engine: %v", err)
	}
	engine.now = func() time.Time { return testClockBase }

	return engine, mr, func() {
		engine.Close()
		closeRedis()
	}
}

func setClock(e *Engine, at time.Time) {
	e.now = func() time.Time { return at }
}

func mustUpdateSettings(t *testing.T, engine *Engine, settings SystemSettings) {
	t.Helper()
	if err := engine.UpdateSettings(context.Background(), settings); err != nil {
		t.Fatalf("update settings: %v", err)
	}
}

func disableMFA(t *testing.T, engine *Engine) {
	t.Helper()
	mustUpdateSettings(t, engine, SystemSettings{
		MFA:               MFADisabled,
		MaxFailedAttempts: DefaultMaxFailedAttempts,
	})
}

func TestBuilder_RequiresRedis(t *testing.T) {
	_, err := New().WithDirectory(testDirectory()).Build()
	if err == nil {
		t.Fatal("expected error when no redis client is set")
	}
}

func TestBuilder_RequiresDirectory(t *testing.T) {
	_, rdb, done := newTestRedis(t)
	defer done()

	_, err := New().WithRedis(rdb).Build()
	if err == nil {
		t.Fatal("expected error when no directory is set")
	}
}

func TestBuilder_SingleUse(t *testing.T) {
	_, rdb, done := newTestRedis(t)
	defer done()

	b := New().WithRedis(rdb).WithDirectory(testDirectory())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error from second Build on the same builder")
	}
}

func TestBuilder_RejectsBlankKeys(t *testing.T) {
	_, rdb, done := newTestRedis(t)
	defer done()

	cfg := defaultConfig()
	cfg.Keys.OTPKey = "   "

	_, err := New().WithRedis(rdb).WithDirectory(testDirectory()).WithConfig(cfg).Build()
	if err == nil {
		t.Fatal("expected validation error for blank key")
	}
}

func TestBuilder_RejectsCollidingKeys(t *testing.T) {
	_, rdb, done := newTestRedis(t)
	defer done()

	cfg := defaultConfig()
	cfg.Keys.OTPKey = cfg.Keys.SessionKey

	_, err := New().WithRedis(rdb).WithDirectory(testDirectory()).WithConfig(cfg).Build()
	if err == nil {
		t.Fatal("expected validation error for colliding keys")
	}
}

func TestEngine_ReadAndClearSession(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	if _, err := engine.ReadSession(ctx); err == nil {
		t.Fatal("expected error reading session before any login")
	}

	if _, err := engine.Login(ctx, "alice", "alice-pass-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	sess, err := engine.ReadSession(ctx)
	if err != nil {
		t.Fatalf("read session failed: %v", err)
	}
	if sess.Identity != "alice" || sess.Role != "principal" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.LoginTime != testClockBase.UnixMilli() {
		t.Fatalf("expected loginTime %d, got %d", testClockBase.UnixMilli(), sess.LoginTime)
	}

	if err := engine.ClearSession(ctx); err != nil {
		t.Fatalf("clear session failed: %v", err)
	}
	if _, err := engine.ReadSession(ctx); err == nil {
		t.Fatal("expected error reading session after clear")
	}
}

func TestEngine_CurrentSettingsDefaults(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	settings, err := engine.CurrentSettings(context.Background())
	if err != nil {
		t.Fatalf("current settings failed: %v", err)
	}
	if settings.MFA != MFARequired {
		t.Fatalf("expected default mfa mode required, got %q", settings.MFA)
	}
	if settings.MaxFailedAttempts != DefaultMaxFailedAttempts {
		t.Fatalf("expected default threshold %d, got %d", DefaultMaxFailedAttempts, settings.MaxFailedAttempts)
	}
}
