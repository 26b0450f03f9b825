package distance

import (
	"context"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/redis"
)

// ErrSuperseded is returned when a newer quote for the same cart session
// started while this one was waiting on its distance lookup.
var ErrSuperseded = pkgerrors.New(pkgerrors.CodeConflict, "superseded by a newer quote")

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	CounterKey(name string) string
}

// Tracker hands out a monotonically increasing lookup token per cart session
// so only the most recent quote for a session is accepted. Tokens live in
// Redis so every API instance sees the same sequence.
type Tracker struct {
	store counterStore
	ttl   time.Duration
}

// NewTracker builds a tracker whose per-session counters expire after ttl.
func NewTracker(store counterStore, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Tracker{store: store, ttl: ttl}
}

// Begin issues the next token for session.
func (t *Tracker) Begin(ctx context.Context, session string) (int64, error) {
	if t == nil || t.store == nil {
		return 0, nil
	}
	token, err := t.store.IncrWithTTL(ctx, t.key(session), t.ttl)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue lookup token")
	}
	return token, nil
}

// Check returns ErrSuperseded when token is no longer the latest for session.
func (t *Tracker) Check(ctx context.Context, session string, token int64) error {
	if t == nil || t.store == nil {
		return nil
	}
	raw, err := t.store.Get(ctx, t.key(session))
	if err != nil {
		if redis.IsMiss(err) {
			return ErrSuperseded
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read lookup token")
	}
	latest, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse lookup token")
	}
	if latest != token {
		return ErrSuperseded
	}
	return nil
}

func (t *Tracker) key(session string) string {
	return t.store.CounterKey("quote:" + session)
}
