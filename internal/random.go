package internal

import (
	"math/rand"
	"strconv"

	"github.com/google/uuid"
)

// NewOTPCode returns a uniformly random six-digit code in [100000, 999999].
// Codes are math/rand grade; the delivery channel is simulated and the
// contract does not call for cryptographic randomness.
func NewOTPCode() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}

// NewEventID returns a random identifier for audit events.
func NewEventID() string {
	return uuid.NewString()
}
