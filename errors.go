package authgate

import "errors"

var (
	// ErrMissingFields is an exported constant or variable used by the login gate.
	ErrMissingFields = errors.New("user id and password are required")
	// ErrInvalidCredentials is an exported constant or variable used by the login gate.
	ErrInvalidCredentials = errors.New("invalid user id or password")
	// ErrLockedOut is an exported constant or variable used by the login gate.
	ErrLockedOut = errors.New("account locked")
	// ErrRosterUnavailable is an exported constant or variable used by the login gate.
	ErrRosterUnavailable = errors.New("user roster unavailable")
	// ErrOTPRequired is an exported constant or variable used by the login gate.
	ErrOTPRequired = errors.New("otp code required")
	// ErrOTPSessionExpired is an exported constant or variable used by the login gate.
	ErrOTPSessionExpired = errors.New("otp session expired")
	// ErrOTPExpired is an exported constant or variable used by the login gate.
	ErrOTPExpired = errors.New("otp code expired")
	// ErrOTPInvalid is an exported constant or variable used by the login gate.
	ErrOTPInvalid = errors.New("invalid otp code")
	// ErrRoleInvalid is an exported constant or variable used by the login gate.
	ErrRoleInvalid = errors.New("invalid user role")
	// ErrStateUnavailable is an exported constant or variable used by the login gate.
	ErrStateUnavailable = errors.New("state backend unavailable")
	// ErrTokenInvalid is an exported constant or variable used by the login gate.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrEngineNotReady is an exported constant or variable used by the login gate.
	ErrEngineNotReady = errors.New("engine not initialized")
)
