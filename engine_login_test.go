package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pulsekjo/authgate/roster"
)

func TestLogin_SuccessWithMFADisabled(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	result, err := engine.Login(ctx, "alice", "alice-pass-1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Identity != "alice" {
		t.Fatalf("expected identity alice, got %q", result.Identity)
	}
	if result.Role != RolePrincipal {
		t.Fatalf("expected role principal, got %q", result.Role)
	}
	if result.Destination != DestinationAdmin {
		t.Fatalf("expected destination admin, got %q", result.Destination)
	}
	if result.Session == nil || result.Session.LoginTime != testClockBase.UnixMilli() {
		t.Fatalf("unexpected session %+v", result.Session)
	}
	if result.SessionToken != "" {
		t.Fatal("expected no session token without a signing key")
	}
}

func TestLogin_RoleDestinations(t *testing.T) {
	cases := []struct {
		identity    string
		secret      string
		destination Destination
	}{
		{"alice", "alice-pass-1", DestinationAdmin},
		{"bob", "bob-pass-1", DestinationDashboard},
		{"dup", "dup-pass", DestinationMaster}, // first roster match wins
	}

	for _, tc := range cases {
		engine, _, done := newTestEngine(t)
		disableMFA(t, engine)

		result, err := engine.Login(context.Background(), tc.identity, tc.secret)
		if err != nil {
			done()
			t.Fatalf("%s: login failed: %v", tc.identity, err)
		}
		if result.Destination != tc.destination {
			done()
			t.Fatalf("%s: expected destination %q, got %q", tc.identity, tc.destination, result.Destination)
		}
		done()
	}
}

func TestLogin_MissingFields(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	ctx := context.Background()

	for _, pair := range [][2]string{
		{"", ""},
		{"alice", ""},
		{"", "alice-pass-1"},
		{"   ", "alice-pass-1"},
		{"alice", "   "},
	} {
		_, err := engine.Login(ctx, pair[0], pair[1])
		if !errors.Is(err, ErrMissingFields) {
			t.Fatalf("(%q, %q): expected ErrMissingFields, got %v", pair[0], pair[1], err)
		}
	}
}

func TestLogin_MissingFieldsDoNotCountAsFailures(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()

	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, _ = engine.Login(ctx, "alice", "  ")
	}
	if mr.Exists("loginLockout_alice") {
		t.Fatal("blank submissions must not create lockout state")
	}
}

func TestLogin_InvalidCredentialsCountsDownToLock(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	// First four misses keep reporting invalid credentials.
	for i := 0; i < DefaultMaxFailedAttempts-1; i++ {
		_, err := engine.Login(ctx, "alice", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
		if errors.Is(err, ErrLockedOut) {
			t.Fatalf("attempt %d: locked too early", i+1)
		}
	}

	// The fifth miss reports the lock on the invalid-credentials error.
	_, err := engine.Login(ctx, "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("threshold attempt: expected ErrInvalidCredentials, got %v", err)
	}
	if !strings.Contains(err.Error(), "locked") {
		t.Fatalf("threshold attempt: expected lock notice in %q", err)
	}

	// From now on even the correct password is refused.
	_, err = engine.Login(ctx, "alice", "alice-pass-1")
	if !errors.Is(err, ErrLockedOut) {
		t.Fatalf("post-lock attempt: expected ErrLockedOut, got %v", err)
	}
}

func TestLogin_LockReportsRemainingMinutes(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	for i := 0; i < DefaultMaxFailedAttempts; i++ {
		_, _ = engine.Login(ctx, "alice", "wrong")
	}

	_, err := engine.Login(ctx, "alice", "alice-pass-1")
	if !errors.Is(err, ErrLockedOut) || !strings.Contains(err.Error(), "15 minute(s)") {
		t.Fatalf("expected full 15 minute notice, got %v", err)
	}

	// Ten minutes in, five remain; partial minutes round up.
	setClock(engine, testClockBase.Add(10*time.Minute+30*time.Second))
	_, err = engine.Login(ctx, "alice", "alice-pass-1")
	if !errors.Is(err, ErrLockedOut) || !strings.Contains(err.Error(), "5 minute(s)") {
		t.Fatalf("expected 5 minute notice, got %v", err)
	}
}

func TestLogin_LockExpiresAfterWindow(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	for i := 0; i < DefaultMaxFailedAttempts; i++ {
		_, _ = engine.Login(ctx, "alice", "wrong")
	}
	_, err := engine.Login(ctx, "alice", "alice-pass-1")
	if !errors.Is(err, ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut, got %v", err)
	}

	// Past the lock window the same credentials go through.
	setClock(engine, testClockBase.Add(LockDuration+time.Second))
	mr.FastForward(LockDuration + time.Second)

	result, err := engine.Login(ctx, "alice", "alice-pass-1")
	if err != nil {
		t.Fatalf("login after lock expiry failed: %v", err)
	}
	if result.Destination != DestinationAdmin {
		t.Fatalf("unexpected destination %q", result.Destination)
	}
}

func TestLogin_SuccessClearsFailureHistory(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = engine.Login(ctx, "alice", "wrong")
	}
	if _, err := engine.Login(ctx, "alice", "alice-pass-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if mr.Exists("loginLockout_alice") {
		t.Fatal("expected lockout state cleared after successful login")
	}

	// The count starts over: four more misses do not lock.
	for i := 0; i < DefaultMaxFailedAttempts-1; i++ {
		_, err := engine.Login(ctx, "alice", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("post-reset attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, err := engine.Login(ctx, "alice", "alice-pass-1"); err != nil {
		t.Fatalf("second successful login failed: %v", err)
	}
}

func TestLogin_ThresholdIsReadAtEachFailure(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	mustUpdateSettings(t, engine, SystemSettings{MFA: MFADisabled, MaxFailedAttempts: 5})

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = engine.Login(ctx, "alice", "wrong")
	}

	// Tightening the threshold applies to failures that already happened.
	mustUpdateSettings(t, engine, SystemSettings{MFA: MFADisabled, MaxFailedAttempts: 3})

	_, err := engine.Login(ctx, "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected lock at lowered threshold, got %v", err)
	}
	_, err = engine.Login(ctx, "alice", "alice-pass-1")
	if !errors.Is(err, ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut after lowered-threshold lock, got %v", err)
	}
}

func TestLogin_OtherIdentitiesUnaffectedByLock(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	for i := 0; i < DefaultMaxFailedAttempts; i++ {
		_, _ = engine.Login(ctx, "alice", "wrong")
	}

	result, err := engine.Login(ctx, "bob", "bob-pass-1")
	if err != nil {
		t.Fatalf("bob login failed: %v", err)
	}
	if result.Destination != DestinationDashboard {
		t.Fatalf("unexpected destination %q", result.Destination)
	}
}

func TestLogin_RosterUnavailableIsNotACredentialFailure(t *testing.T) {
	engine, mr, done := newTestEngine(t, func(b *Builder) {
		b.WithDirectory(roster.Unavailable(errors.New("roster file missing")))
	})
	defer done()

	ctx := context.Background()

	_, err := engine.Login(ctx, "alice", "alice-pass-1")
	if !errors.Is(err, ErrRosterUnavailable) {
		t.Fatalf("expected ErrRosterUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("roster outage must not read as bad credentials")
	}
	if mr.Exists("loginLockout_alice") {
		t.Fatal("roster outage must not count toward lockout")
	}
}

func TestLogin_CaseSensitiveCredentials(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	_, err := engine.Login(ctx, "Alice", "alice-pass-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("identity case mismatch: expected ErrInvalidCredentials, got %v", err)
	}
	_, err = engine.Login(ctx, "alice", "ALICE-PASS-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("secret case mismatch: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownRoleFailsAfterSessionWrite(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	_, err := engine.Login(ctx, "carol", "carol-pass-1")
	if !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}

	// The session write happens before role routing and is left in place.
	sess, err := engine.ReadSession(ctx)
	if err != nil {
		t.Fatalf("read session failed: %v", err)
	}
	if sess.Identity != "carol" || sess.Role != "auditor" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestLogin_SignedSessionToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	engine, _, done := newTestEngine(t, func(b *Builder) {
		cfg := defaultConfig()
		cfg.Session.SigningKey = key
		b.WithConfig(cfg)
	})
	defer done()
	disableMFA(t, engine)

	// Token expiry is validated against the wall clock, so this test runs
	// on real time instead of the frozen test clock.
	engine.now = time.Now

	result, err := engine.Login(context.Background(), "alice", "alice-pass-1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.SessionToken == "" {
		t.Fatal("expected a session token with signing configured")
	}

	sess, err := engine.ParseSessionToken(result.SessionToken)
	if err != nil {
		t.Fatalf("parse session token failed: %v", err)
	}
	if sess.Identity != "alice" || sess.Role != "principal" {
		t.Fatalf("unexpected token session %+v", sess)
	}
	if sess.LoginTime/1000 != result.Session.LoginTime/1000 {
		t.Fatalf("expected login time %d, got %d", result.Session.LoginTime/1000, sess.LoginTime/1000)
	}

	if _, err := engine.ParseSessionToken(result.SessionToken + "x"); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestLogin_MetricsCountOutcomes(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	disableMFA(t, engine)

	ctx := context.Background()

	_, _ = engine.Login(ctx, "alice", "wrong")
	if _, err := engine.Login(ctx, "alice", "alice-pass-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	snapshot := engine.MetricsSnapshot()
	if snapshot.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("expected 1 login failure, got %d", snapshot.Counters[MetricLoginFailure])
	}
	if snapshot.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected 1 login success, got %d", snapshot.Counters[MetricLoginSuccess])
	}
	if snapshot.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("expected 1 session created, got %d", snapshot.Counters[MetricSessionCreated])
	}
}

func TestLogin_AuditTrail(t *testing.T) {
	sink := NewChannelSink(16)
	engine, _, done := newTestEngine(t, func(b *Builder) {
		cfg := defaultConfig()
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 16
		b.WithConfig(cfg).WithAuditSink(sink)
	})
	defer done()
	disableMFA(t, engine)

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	if _, err := engine.Login(ctx, "alice", "alice-pass-1"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	engine.Close()

	var types []string
	var sawIP bool
	for {
		select {
		case event := <-sink.Events():
			types = append(types, event.EventType)
			if event.IP == "203.0.113.9" {
				sawIP = true
			}
			if event.ID == "" {
				t.Fatal("expected audit event id")
			}
		default:
			goto drained
		}
	}
drained:
	if !containsString(types, auditEventSessionCreated) || !containsString(types, auditEventLoginSuccess) {
		t.Fatalf("missing expected audit events, got %v", types)
	}
	if !sawIP {
		t.Fatal("expected client IP on audit events")
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
