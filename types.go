package authgate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/pulsekjo/authgate/internal/audit"
	"github.com/pulsekjo/authgate/session"
)

// Role defines a public type used by authgate APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RolePrincipal is an exported constant or variable used by the login gate.
	RolePrincipal Role = "principal"
	// RoleMaster is an exported constant or variable used by the login gate.
	RoleMaster Role = "master"
	// RoleBusinessUser is an exported constant or variable used by the login gate.
	RoleBusinessUser Role = "business_user"
)

// Destination defines a public type used by authgate APIs.
//
// Destination instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Destination string

const (
	// DestinationAdmin is an exported constant or variable used by the login gate.
	DestinationAdmin Destination = "admin"
	// DestinationMaster is an exported constant or variable used by the login gate.
	DestinationMaster Destination = "master"
	// DestinationDashboard is an exported constant or variable used by the login gate.
	DestinationDashboard Destination = "dashboard"
)

func destinationForRole(role Role) (Destination, bool) {
	switch role {
	case RolePrincipal:
		return DestinationAdmin, true
	case RoleMaster:
		return DestinationMaster, true
	case RoleBusinessUser:
		return DestinationDashboard, true
	default:
		return "", false
	}
}

// MFAMode defines a public type used by authgate APIs.
//
// MFAMode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAMode string

const (
	// MFARequired is an exported constant or variable used by the login gate.
	MFARequired MFAMode = "required"
	// MFAOptional is an exported constant or variable used by the login gate.
	MFAOptional MFAMode = "optional"
	// MFADisabled is an exported constant or variable used by the login gate.
	MFADisabled MFAMode = "disabled"
)

// mfaModeFromString treats any unknown mode as disabled.
func mfaModeFromString(s string) MFAMode {
	switch s {
	case string(MFARequired):
		return MFARequired
	case string(MFAOptional):
		return MFAOptional
	default:
		return MFADisabled
	}
}

// SystemSettings is the operator-controlled policy read by [Engine.Login]:
// MFA mode, failed-attempt threshold, and the notification address used for
// simulated OTP delivery. The threshold is re-read from the store on every
// failed attempt; it is never frozen into lockout state.
type SystemSettings struct {
	MFA                    MFAMode
	MaxFailedAttempts      int
	MFANotificationAddress string
}

// LoginResult is returned by [Engine.Login] on success. It carries the
// authenticated identity, its role, the destination the caller should route
// to, the persisted session record, and (when signing is configured) a
// signed token representation of that record.
type LoginResult struct {
	Identity     string
	Role         Role
	Destination  Destination
	Session      *session.Session
	SessionToken string
}

// OTPNotification is the simulated delivery payload handed to a [Notifier]
// when a challenge is issued. MaskedAddress is the display form; Address is
// the raw configured address and must not be shown to end users.
type OTPNotification struct {
	Identity      string
	Address       string
	MaskedAddress string
	Code          string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Notifier receives [OTPNotification] values. Delivery is fire-and-forget;
// the engine never waits on a Notifier to fail a login.
type Notifier interface {
	Deliver(ctx context.Context, n OTPNotification)
}

// CodeProvider supplies the code the end user typed for a pending challenge.
// It is a synchronous collaborator: the engine blocks on ProvideCode between
// issuing a challenge and verifying it. Returning ok=false means the user
// dismissed the prompt without entering anything.
type CodeProvider interface {
	ProvideCode(ctx context.Context, identity string) (code string, ok bool)
}

// CodeProviderFunc adapts a function to the [CodeProvider] interface.
type CodeProviderFunc func(ctx context.Context, identity string) (string, bool)

// ProvideCode describes the providecode operation and its observable behavior.
//
// ProvideCode may return an error when input validation, dependency calls, or security checks fail.
// ProvideCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f CodeProviderFunc) ProvideCode(ctx context.Context, identity string) (string, bool) {
	return f(ctx, identity)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
