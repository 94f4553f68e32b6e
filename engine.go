package authgate

import (
	"context"
	"fmt"
	"time"

	internalaudit "github.com/pulsekjo/authgate/internal/audit"
	"github.com/pulsekjo/authgate/internal/limiters"
	"github.com/pulsekjo/authgate/internal/stores"
	"github.com/pulsekjo/authgate/roster"
	"github.com/pulsekjo/authgate/session"
	"go.uber.org/zap"
)

// Engine defines a public type used by authgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	directory    *roster.Directory
	lockout      *limiters.LockoutLimiter
	settings     *stores.SettingsStore
	otpStore     *stores.OTPChallengeStore
	sessionStore *session.Store
	notifier     Notifier
	codeProvider CodeProvider
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *zap.Logger

	now func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string, fields ...zap.Field) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn(msg, fields...)
}

// ReadSession describes the readsession operation and its observable behavior.
//
// ReadSession may return an error when input validation, dependency calls, or security checks fail.
// ReadSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ReadSession(ctx context.Context) (*session.Session, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}
	return e.sessionStore.Get(ctx)
}

// ClearSession describes the clearsession operation and its observable behavior.
//
// ClearSession may return an error when input validation, dependency calls, or security checks fail.
// ClearSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ClearSession(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if err := e.sessionStore.Clear(ctx); err != nil {
		return err
	}
	e.metricInc(MetricSessionCleared)
	e.emitAudit(ctx, auditEventSessionCleared, true, "", nil, nil)
	return nil
}

// ParseSessionToken describes the parsesessiontoken operation and its observable behavior.
//
// ParseSessionToken may return an error when input validation, dependency calls, or security checks fail.
// ParseSessionToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ParseSessionToken(token string) (*session.Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if len(e.config.Session.SigningKey) == 0 {
		return nil, fmt.Errorf("%w: token signing not configured", ErrTokenInvalid)
	}
	sess, err := session.ParseToken(token, e.config.Session.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return sess, nil
}

// CurrentSettings describes the currentsettings operation and its observable behavior.
//
// CurrentSettings may return an error when input validation, dependency calls, or security checks fail.
// CurrentSettings does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CurrentSettings(ctx context.Context) (SystemSettings, error) {
	if e == nil || e.settings == nil {
		return SystemSettings{}, ErrEngineNotReady
	}
	return e.currentSettings(ctx)
}

// UpdateSettings describes the updatesettings operation and its observable behavior.
//
// UpdateSettings may return an error when input validation, dependency calls, or security checks fail.
// UpdateSettings does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UpdateSettings(ctx context.Context, settings SystemSettings) error {
	if e == nil || e.settings == nil {
		return ErrEngineNotReady
	}
	err := e.settings.Put(ctx, stores.SystemSettings{
		MFA:                 string(settings.MFA),
		FailedLoginAttempts: settings.MaxFailedAttempts,
		MFAEmail:            settings.MFANotificationAddress,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	return nil
}

func (e *Engine) currentSettings(ctx context.Context) (SystemSettings, error) {
	rec, err := e.settings.Get(ctx)
	if err != nil {
		return SystemSettings{}, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	return SystemSettings{
		MFA:                    mfaModeFromString(rec.MFA),
		MaxFailedAttempts:      rec.FailedLoginAttempts,
		MFANotificationAddress: rec.MFAEmail,
	}, nil
}

func (e *Engine) ready() bool {
	return e != nil &&
		e.directory != nil &&
		e.lockout != nil &&
		e.settings != nil &&
		e.otpStore != nil &&
		e.sessionStore != nil
}
