package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is an exported constant or variable used by the login gate.
var ErrNoSession = errors.New("no active session")

// ErrSessionBackend is an exported constant or variable used by the login gate.
var ErrSessionBackend = errors.New("session backend unavailable")

// Store persists the current session record. There is a single session slot
// per keyspace and no expiry: the record lives until a consumer clears it.
type Store struct {
	redis redis.UniversalClient
	key   string
}

// NewStore creates a session store over the given key.
func NewStore(redisClient redis.UniversalClient, key string) *Store {
	if key == "" {
		key = "currentUser"
	}
	return &Store{
		redis: redisClient,
		key:   key,
	}
}

// Save writes the session record, replacing any previous one.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionBackend, err)
	}
	if err := s.redis.Set(ctx, s.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionBackend, err)
	}
	return nil
}

// Get returns the current session record, or [ErrNoSession] when none is
// stored.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionBackend, err)
	}

	sess := &Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionBackend, err)
	}
	return sess, nil
}

// Clear deletes the current session record. Clearing an empty slot is not
// an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionBackend, err)
	}
	return nil
}
