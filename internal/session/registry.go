// Package session serializes backend calls per chat and owns the backend
// session bound to each chat: it creates the session on first use, persists
// it when a Store is given, and replaces it once when a call fails.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory creates a fresh backend session for key.
type Factory[S any] func(ctx context.Context, key string) (S, error)

// Call is one request made with a session.
type Call[S any] func(ctx context.Context, s S) (string, error)

// Store persists sessions between restarts. *store.Dict satisfies it.
type Store[S any] interface {
	Get(key string) (S, bool)
	Set(ctx context.Context, key string, s S) error
	Delete(ctx context.Context, key string) error
}

type entry[S any] struct {
	sem chan struct{}

	// под sem
	sess S
	has  bool

	// под Registry.mu
	users    int
	lastUsed time.Time
}

type Registry[S any] struct {
	name    string
	factory Factory[S]
	store   Store[S]
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[S]
}

type Option[S any] func(*Registry[S])

func WithStore[S any](st Store[S]) Option[S] {
	return func(r *Registry[S]) { r.store = st }
}

func withClock[S any](now func() time.Time) Option[S] {
	return func(r *Registry[S]) { r.now = now }
}

func New[S any](name string, factory Factory[S], log *zap.Logger, opts ...Option[S]) *Registry[S] {
	r := &Registry[S]{
		name:    name,
		factory: factory,
		log:     log.Named("session").With(zap.String("backend", name)),
		now:     time.Now,
		entries: make(map[string]*entry[S]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs call under the key's lock. A failed call drops the session,
// creates a new one and is repeated exactly once.
func (r *Registry[S]) Do(ctx context.Context, key string, call Call[S]) (string, error) {
	e, err := r.acquire(ctx, key)
	if err != nil {
		return "", err
	}
	defer r.release(e)

	attempt := func() (string, error) {
		s, err := r.session(ctx, key, e)
		if err != nil {
			return "", fmt.Errorf("new session: %w", err)
		}
		return call(ctx, s)
	}

	out, err := attempt()
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%s: %w", r.name, err)
	}

	r.log.Warn("call failed, recreating session", zap.String("key", key), zap.Error(err))
	if dropErr := r.drop(ctx, key, e); dropErr != nil {
		r.log.Warn("drop session", zap.String("key", key), zap.Error(dropErr))
	}

	out, err = attempt()
	if err != nil {
		r.log.Error("retry failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%s: retry: %w", r.name, err)
	}
	return out, nil
}

// Reset forgets the session of key, waiting for a running call to finish.
// cleanup runs under the same lock, so no call sees a half-reset chat.
func (r *Registry[S]) Reset(ctx context.Context, key string, cleanup ...func(context.Context) error) error {
	e, err := r.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer r.release(e)

	if err := r.drop(ctx, key, e); err != nil {
		return err
	}
	for _, fn := range cleanup {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Evict drops idle in-memory entries unused for olderThan and returns how
// many were removed. Persisted sessions stay in the Store.
func (r *Registry[S]) Evict(olderThan time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-olderThan)
	n := 0
	for k, e := range r.entries {
		if e.users == 0 && !e.lastUsed.After(cutoff) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[S]) acquire(ctx context.Context, key string) (*entry[S], error) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry[S]{sem: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	e.users++
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return e, nil
	case <-ctx.Done():
		r.mu.Lock()
		e.users--
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (r *Registry[S]) release(e *entry[S]) {
	r.mu.Lock()
	e.users--
	e.lastUsed = r.now()
	r.mu.Unlock()

	<-e.sem
}

func (r *Registry[S]) session(ctx context.Context, key string, e *entry[S]) (S, error) {
	if e.has {
		return e.sess, nil
	}

	if r.store != nil {
		if s, ok := r.store.Get(key); ok {
			e.sess, e.has = s, true
			return s, nil
		}
	}

	s, err := r.factory(ctx, key)
	if err != nil {
		return s, err
	}

	if r.store != nil {
		if err := r.store.Set(ctx, key, s); err != nil {
			r.log.Warn("persist session", zap.String("key", key), zap.Error(err))
		}
	}

	e.sess, e.has = s, true
	return s, nil
}

func (r *Registry[S]) drop(ctx context.Context, key string, e *entry[S]) error {
	var zero S
	e.sess, e.has = zero, false

	if r.store != nil {
		return r.store.Delete(ctx, key)
	}
	return nil
}
