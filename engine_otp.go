package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulsekjo/authgate/internal"
	"github.com/pulsekjo/authgate/internal/stores"
	"go.uber.org/zap"
)

// runOTPChallenge issues a challenge, delivers it through the notifier, and
// blocks on the code provider for the user's answer. Under optional MFA a
// dismissed prompt lets the login proceed; under required MFA it aborts.
func (e *Engine) runOTPChallenge(ctx context.Context, identity string, settings SystemSettings, now time.Time) error {
	challenge := &stores.OTPChallenge{
		Code:      internal.NewOTPCode(),
		Identity:  identity,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(OTPLifetime).UnixMilli(),
	}

	if err := e.otpStore.Save(ctx, challenge, OTPLifetime); err != nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, identity, err, nil)
		return fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, identity, nil, func() map[string]string {
		return map[string]string{
			"mode": string(settings.MFA),
		}
	})

	e.deliverChallenge(ctx, identity, settings, challenge)

	code, submitted := e.provideCode(ctx, identity)
	if !submitted {
		if settings.MFA == MFARequired {
			if _, err := e.otpStore.Delete(ctx); err != nil {
				e.warn("otp challenge cleanup failed", zap.Error(err))
			}
			e.metricInc(MetricOTPFailure)
			e.emitAudit(ctx, auditEventOTPFailure, false, identity, ErrOTPRequired, func() map[string]string {
				return map[string]string{
					"reason": "no_code_submitted",
				}
			})
			return ErrOTPRequired
		}
		// Optional mode with no code: continue without a second factor.
		// The unclaimed challenge ages out through its TTL.
		return nil
	}

	return e.verifyChallenge(ctx, identity, code)
}

// verifyChallenge checks a submitted code against the pending challenge.
// Every terminal outcome discards the stored record; a failed verification
// means a full re-login, not a retry against the same challenge.
func (e *Engine) verifyChallenge(ctx context.Context, identity, code string) error {
	stored, err := e.otpStore.Get(ctx)
	if err != nil {
		if errors.Is(err, stores.ErrOTPChallengeNotFound) {
			e.metricInc(MetricOTPFailure)
			e.emitAudit(ctx, auditEventOTPFailure, false, identity, ErrOTPSessionExpired, nil)
			return ErrOTPSessionExpired
		}
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, identity, err, nil)
		return fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}

	if _, err := e.otpStore.Delete(ctx); err != nil {
		e.warn("otp challenge cleanup failed", zap.Error(err))
	}

	if e.now().UnixMilli() > stored.ExpiresAt {
		e.metricInc(MetricOTPExpired)
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, identity, ErrOTPExpired, nil)
		return ErrOTPExpired
	}

	if stored.Identity != identity || stored.Code != code {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, auditEventOTPFailure, false, identity, ErrOTPInvalid, nil)
		return ErrOTPInvalid
	}

	e.metricInc(MetricOTPSuccess)
	e.emitAudit(ctx, auditEventOTPVerified, true, identity, nil, nil)
	return nil
}

func (e *Engine) deliverChallenge(ctx context.Context, identity string, settings SystemSettings, challenge *stores.OTPChallenge) {
	if e.notifier == nil {
		return
	}

	masked := maskAddress(settings.MFANotificationAddress)
	if settings.MFANotificationAddress == "" {
		masked = "your email"
	}

	e.notifier.Deliver(ctx, OTPNotification{
		Identity:      identity,
		Address:       settings.MFANotificationAddress,
		MaskedAddress: masked,
		Code:          challenge.Code,
		IssuedAt:      time.UnixMilli(challenge.IssuedAt),
		ExpiresAt:     time.UnixMilli(challenge.ExpiresAt),
	})
}

func (e *Engine) provideCode(ctx context.Context, identity string) (string, bool) {
	if e.codeProvider == nil {
		return "", false
	}
	return e.codeProvider.ProvideCode(ctx, identity)
}
