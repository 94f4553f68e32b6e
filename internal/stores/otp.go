package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrOTPChallengeNotFound = errors.New("otp challenge not found")
	ErrOTPChallengeBackend  = errors.New("otp challenge backend unavailable")
)

// OTPChallenge is the pending one-time-passcode record. Timestamps are Unix
// milliseconds; the wire names match the external store contract consumed by
// other readers of the keyspace.
type OTPChallenge struct {
	Code      string `json:"code"`
	IssuedAt  int64  `json:"generatedAt"`
	ExpiresAt int64  `json:"expiresAt"`
	Identity  string `json:"userId"`
}

// OTPChallengeStore persists the single pending challenge. The keyspace
// holds at most one challenge at a time; issuing a new one overwrites any
// predecessor.
type OTPChallengeStore struct {
	redis redis.UniversalClient
	key   string
}

func NewOTPChallengeStore(redisClient redis.UniversalClient, key string) *OTPChallengeStore {
	if key == "" {
		key = "currentOTP"
	}
	return &OTPChallengeStore{
		redis: redisClient,
		key:   key,
	}
}

func (s *OTPChallengeStore) Save(ctx context.Context, record *OTPChallenge, ttl time.Duration) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}
	if err := s.redis.Set(ctx, s.key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}
	return nil
}

func (s *OTPChallengeStore) Get(ctx context.Context) (*OTPChallenge, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOTPChallengeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}

	record := &OTPChallenge{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}
	return record, nil
}

func (s *OTPChallengeStore) Delete(ctx context.Context) (bool, error) {
	n, err := s.redis.Del(ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOTPChallengeBackend, err)
	}
	return n > 0, nil
}
