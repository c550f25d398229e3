// Package idempotency remembers keyed operations in Redis so the same key
// runs at most once per window.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrDuplicate matches every DuplicateError.
	ErrDuplicate    = errors.New("idempotency: duplicate operation")
	ErrInvalidState = errors.New("idempotency: invalid stored state")
)

type State string

const (
	StateNone       State = ""
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// DuplicateError reports which stored state blocked an Exec.
type DuplicateError struct {
	Key   string
	State State
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("idempotency: %q already %s", e.Key, e.State)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// acquireScript claims KEYS[1] as in_progress for ARGV[1] ms, or returns the
// state already stored there.
var acquireScript = redis.NewScript(`
local prev = redis.call('GET', KEYS[1])
if prev then
	return prev
end
redis.call('SET', KEYS[1], 'in_progress', 'PX', ARGV[1])
return ''
`)

const (
	keyPrefix           = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// StateTracker implements Idempotency on a Redis client.
type StateTracker struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration     time.Duration
	stateTTL         time.Duration
	releaseOnFailure bool
}

// WithLockDuration bounds the in_progress marker in case the process dies
// mid-run.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the completed or failed state is kept.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithReleaseOnFailure forgets the key when fn fails so an immediate retry
// is allowed.
func WithReleaseOnFailure() Option {
	return func(o *execOptions) { o.releaseOnFailure = true }
}

// Acquire claims key and returns StateNone, or returns the state that is
// already stored without claiming.
func (s *StateTracker) Acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	prev, err := acquireScript.Run(ctx, s.client, []string{keyPrefix + key}, lock.Milliseconds()).Text()
	if err != nil {
		return StateNone, err
	}

	switch st := State(prev); st {
	case StateNone, StateInProgress, StateCompleted, StateFailed:
		return st, nil
	default:
		return StateNone, fmt.Errorf("%w: %q", ErrInvalidState, prev)
	}
}

// Release forgets any state stored for key.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Exec runs fn once per key and window. A key that is in progress,
// completed or failed yields a *DuplicateError.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	o.lockDuration = max(o.lockDuration, time.Millisecond)
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	if state != StateNone {
		return &DuplicateError{Key: key, State: state}
	}

	if err := fn(ctx); err != nil {
		if o.releaseOnFailure {
			return errors.Join(err, s.Release(ctx, key))
		}
		return errors.Join(err, s.set(ctx, key, StateFailed, o.stateTTL))
	}

	return s.set(ctx, key, StateCompleted, o.stateTTL)
}

func (s *StateTracker) set(ctx context.Context, key string, st State, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, string(st), ttl).Err()
}
