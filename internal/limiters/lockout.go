package limiters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockDuration is how long an account stays locked after the failure
// threshold is reached.
const LockDuration = 15 * time.Minute

var (
	// ErrLockoutUnavailable indicates the lockout backend is unreachable.
	ErrLockoutUnavailable = errors.New("lockout backend unavailable")
)

// lockoutRecord is the persisted wire shape. LockUntil is Unix milliseconds;
// it is only meaningful while Locked is true.
type lockoutRecord struct {
	Attempts  int   `json:"attempts"`
	Locked    bool  `json:"locked"`
	LockUntil int64 `json:"lockUntil,omitempty"`
}

// Decision is the outcome of a pre-authentication lockout check.
type Decision struct {
	Allowed   bool
	Remaining time.Duration // > 0 only when denied
}

// FailureResult is the outcome of recording one failed attempt.
type FailureResult struct {
	Locked            bool
	Attempts          int
	RemainingAttempts int
	LockedUntil       time.Time // zero unless Locked
}

// LockoutLimiter tracks persistent failed login attempts per identity and
// locks the identity out when the caller-supplied threshold is reached.
// The threshold is evaluated on every RecordFailure call, never stored.
type LockoutLimiter struct {
	redis  redis.UniversalClient
	prefix string
}

// NewLockoutLimiter creates a new lockout limiter.
func NewLockoutLimiter(redisClient redis.UniversalClient, prefix string) *LockoutLimiter {
	if prefix == "" {
		prefix = "loginLockout_"
	}
	return &LockoutLimiter{redis: redisClient, prefix: prefix}
}

func (l *LockoutLimiter) key(identity string) string {
	return l.prefix + identity
}

// CheckAccess reports whether identity may attempt a login at now.
// An expired lock is deleted on check, so a denied identity becomes allowed
// again without any explicit unlock call.
func (l *LockoutLimiter) CheckAccess(ctx context.Context, identity string, now time.Time) (Decision, error) {
	data, err := l.redis.Get(ctx, l.key(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Decision{Allowed: true}, nil
		}
		return Decision{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	var rec lockoutRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	if rec.Locked {
		remaining := time.Duration(rec.LockUntil-now.UnixMilli()) * time.Millisecond
		if remaining > 0 {
			return Decision{Allowed: false, Remaining: remaining}, nil
		}
		// Lock window has passed: implicit unlock.
		if err := l.redis.Del(ctx, l.key(identity)).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
	}

	return Decision{Allowed: true}, nil
}

// RecordFailure increments the failure counter for identity and locks it
// when the incremented count reaches maxAttempts. Locked records carry a
// TTL equal to the lock window so key expiry and implicit unlock coincide;
// accumulating records persist without TTL.
func (l *LockoutLimiter) RecordFailure(ctx context.Context, identity string, maxAttempts int, now time.Time) (FailureResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var rec lockoutRecord
	data, err := l.redis.Get(ctx, l.key(identity)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return FailureResult{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &rec); err != nil {
			return FailureResult{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
	}

	rec.Attempts++

	if rec.Attempts >= maxAttempts {
		rec.Locked = true
		rec.LockUntil = now.Add(LockDuration).UnixMilli()

		encoded, err := json.Marshal(rec)
		if err != nil {
			return FailureResult{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
		if err := l.redis.Set(ctx, l.key(identity), encoded, LockDuration).Err(); err != nil {
			return FailureResult{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
		}
		return FailureResult{
			Locked:      true,
			Attempts:    rec.Attempts,
			LockedUntil: time.UnixMilli(rec.LockUntil),
		}, nil
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return FailureResult{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if err := l.redis.Set(ctx, l.key(identity), encoded, 0).Err(); err != nil {
		return FailureResult{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return FailureResult{
		Attempts:          rec.Attempts,
		RemainingAttempts: maxAttempts - rec.Attempts,
	}, nil
}

// RecordSuccess clears the failure state for identity (e.g., after a
// successful credential match).
func (l *LockoutLimiter) RecordSuccess(ctx context.Context, identity string) error {
	if err := l.redis.Del(ctx, l.key(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

// Attempts returns the current failure count for identity.
func (l *LockoutLimiter) Attempts(ctx context.Context, identity string) (int, error) {
	data, err := l.redis.Get(ctx, l.key(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	var rec lockoutRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return rec.Attempts, nil
}
