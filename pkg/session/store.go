package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/redis"
)

type keyValueStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
	IncrCounter(ctx context.Context, name string, window time.Duration) (int64, error)
}

// loginFailureWindow is how long a run of failed sign-ins stays counted.
const loginFailureWindow = 15 * time.Minute

// Store persists session records in Redis under the fixed key prefix.
type Store struct {
	kv  keyValueStore
	ttl time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &Store{kv: client, ttl: ttl}, nil
}

// Save writes the session record, replacing any previous one.
func (s *Store) Save(ctx context.Context, sessionID string, record Session) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.kv.Set(ctx, s.kv.SessionKey(sessionID), string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "persist session")
	}
	return nil
}

// Load returns the stored record. A missing record is the guest state and
// comes back as a zero Session with no error.
func (s *Store) Load(ctx context.Context, sessionID string) (Session, error) {
	raw, err := s.kv.Get(ctx, s.kv.SessionKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return Session{}, nil
		}
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "load session")
	}
	var record Session
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Session{}, pkgerrors.Wrap(pkgerrors.CodeBadResponse, err, "decode session")
	}
	return record, nil
}

// RecordLoginFailure bumps the rolling failure counter for the identity
// and returns the count inside the current window. The count is
// observability only; lockout is the backend's call.
func (s *Store) RecordLoginFailure(ctx context.Context, identity string) (int64, error) {
	return s.kv.IncrCounter(ctx, "login_failures:"+identity, loginFailureWindow)
}

// Delete removes the record, ending the session server-side.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.SessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "delete session")
	}
	return nil
}
