package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pulsekjo/authgate/internal/limiters"
	"github.com/pulsekjo/authgate/roster"
	"github.com/pulsekjo/authgate/session"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The flow runs strictly in order: field validation, lockout check,
// credential lookup, lockout bookkeeping, optional OTP challenge, session
// write, role routing. The session record is written before the role is
// validated, so an unrecognized role fails the login while leaving the
// session in place; that ordering is part of the external contract.
func (e *Engine) Login(ctx context.Context, identity, secret string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	if e.metrics.LatencyEnabled() {
		defer func() {
			e.metrics.Observe(MetricLoginLatency, time.Since(start))
		}()
	}

	identity = strings.TrimSpace(identity)
	if identity == "" || strings.TrimSpace(secret) == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, ErrMissingFields, func() map[string]string {
			return map[string]string{
				"reason": "missing_fields",
			}
		})
		return nil, ErrMissingFields
	}

	now := e.now()

	decision, err := e.lockout.CheckAccess(ctx, identity, now)
	if err != nil {
		return nil, e.failUnavailable(ctx, identity, err)
	}
	if !decision.Allowed {
		minutes := ceilMinutes(decision.Remaining)
		e.metricInc(MetricLoginLockedOut)
		e.emitAudit(ctx, auditEventLoginLockedOut, false, identity, ErrLockedOut, func() map[string]string {
			return map[string]string{
				"remaining_minutes": fmt.Sprintf("%d", minutes),
			}
		})
		return nil, fmt.Errorf(
			"%w: too many failed attempts, try again in %d minute(s)",
			ErrLockedOut, minutes,
		)
	}

	user, err := e.directory.Find(identity, secret)
	if err != nil {
		if errors.Is(err, roster.ErrUnavailable) {
			e.metricInc(MetricRosterUnavailable)
			e.emitAudit(ctx, auditEventRosterUnavailable, false, identity, err, nil)
			return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
		}
		return nil, e.recordFailedAttempt(ctx, identity, now)
	}

	// Credentials matched: failure history is forgiven unconditionally,
	// even if a later step aborts this login.
	if err := e.lockout.RecordSuccess(ctx, identity); err != nil {
		return nil, e.failUnavailable(ctx, identity, err)
	}

	settings, err := e.currentSettings(ctx)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, err, nil)
		return nil, err
	}

	if settings.MFA == MFARequired || settings.MFA == MFAOptional {
		if err := e.runOTPChallenge(ctx, identity, settings, now); err != nil {
			return nil, err
		}
	}

	sess := &session.Session{
		Identity:  identity,
		Role:      user.Role,
		LoginTime: now.UnixMilli(),
	}
	if err := e.sessionStore.Save(ctx, sess); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, err, nil)
		return nil, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, identity, nil, nil)

	result := &LoginResult{
		Identity: identity,
		Role:     Role(user.Role),
		Session:  sess,
	}

	if len(e.config.Session.SigningKey) > 0 {
		token, err := session.EncodeToken(sess, e.config.Session.SigningKey, e.config.Session.TokenTTL, now)
		if err != nil {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, identity, err, nil)
			return nil, err
		}
		result.SessionToken = token
	}

	destination, ok := destinationForRole(result.Role)
	if !ok {
		e.metricInc(MetricRoleRejected)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventRoleRejected, false, identity, ErrRoleInvalid, func() map[string]string {
			return map[string]string{
				"role": user.Role,
			}
		})
		return nil, fmt.Errorf("%w: %q", ErrRoleInvalid, user.Role)
	}
	result.Destination = destination

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity, nil, func() map[string]string {
		return map[string]string{
			"role":        user.Role,
			"destination": string(destination),
		}
	})

	return result, nil
}

// recordFailedAttempt counts one credential miss against identity, using
// the attempt threshold as the settings store defines it right now.
func (e *Engine) recordFailedAttempt(ctx context.Context, identity string, now time.Time) error {
	settings, err := e.currentSettings(ctx)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity, err, nil)
		return err
	}

	result, err := e.lockout.RecordFailure(ctx, identity, settings.MaxFailedAttempts, now)
	if err != nil {
		return e.failUnavailable(ctx, identity, err)
	}

	e.metricInc(MetricLoginFailure)

	if result.Locked {
		e.metricInc(MetricLockoutTriggered)
		e.emitAudit(ctx, auditEventLockoutTriggered, false, identity, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"attempts": fmt.Sprintf("%d", result.Attempts),
			}
		})
		return fmt.Errorf(
			"%w: too many failed attempts, account locked for %d minutes",
			ErrInvalidCredentials, int(limiters.LockDuration.Minutes()),
		)
	}

	e.emitAudit(ctx, auditEventLoginFailure, false, identity, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{
			"reason":             "invalid_credentials",
			"remaining_attempts": fmt.Sprintf("%d", result.RemainingAttempts),
		}
	})
	return fmt.Errorf(
		"%w: %d attempt(s) remaining before lockout",
		ErrInvalidCredentials, result.RemainingAttempts,
	)
}

func (e *Engine) failUnavailable(ctx context.Context, identity string, cause error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, identity, cause, nil)
	return fmt.Errorf("%w: %v", ErrStateUnavailable, cause)
}

// ceilMinutes rounds a remaining window up to whole minutes, with a floor
// of one so a nearly-expired lock never reports zero.
func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
