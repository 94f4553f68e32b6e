package authgate

import (
	"context"

	"github.com/pulsekjo/authgate/internal"
	internalaudit "github.com/pulsekjo/authgate/internal/audit"
)

const (
	auditEventLoginSuccess      = "login.success"
	auditEventLoginFailure      = "login.failure"
	auditEventLoginLockedOut    = "login.locked_out"
	auditEventLockoutTriggered  = "login.lockout_triggered"
	auditEventRosterUnavailable = "login.roster_unavailable"
	auditEventOTPIssued         = "otp.issued"
	auditEventOTPVerified       = "otp.verified"
	auditEventOTPFailure        = "otp.failure"
	auditEventSessionCreated    = "session.created"
	auditEventSessionCleared    = "session.cleared"
	auditEventRoleRejected      = "login.role_rejected"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	cause error,
	metaFn func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.Event{
		ID:        internal.NewEventID(),
		Timestamp: e.now(),
		EventType: eventType,
		Identity:  identity,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}

	e.audit.Emit(ctx, event)
}
