package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/store"
)

func counterFactory(n *int32) Factory[string] {
	return func(_ context.Context, key string) (string, error) {
		id := atomic.AddInt32(n, 1)
		return fmt.Sprintf("%s-%d", key, id), nil
	}
}

func TestDoReusesSession(t *testing.T) {
	var created int32
	r := New[string]("gpt", counterFactory(&created), zap.NewNop())

	var seen []string
	for i := 0; i < 3; i++ {
		out, err := r.Do(context.Background(), "1", func(_ context.Context, s string) (string, error) {
			seen = append(seen, s)
			return "ok", nil
		})
		if err != nil || out != "ok" {
			t.Fatalf("Do() = %q, %v", out, err)
		}
	}
	if created != 1 {
		t.Fatalf("factory called %d times, want 1", created)
	}
	if seen[0] != seen[2] {
		t.Fatalf("sessions differ: %v", seen)
	}
}

func TestDoRecreatesSessionOnce(t *testing.T) {
	var created int32
	r := New[string]("claude", counterFactory(&created), zap.NewNop())

	var used []string
	out, err := r.Do(context.Background(), "9", func(_ context.Context, s string) (string, error) {
		used = append(used, s)
		if len(used) == 1 {
			return "", errors.New("conversation expired")
		}
		return "ответ", nil
	})
	if err != nil || out != "ответ" {
		t.Fatalf("Do() = %q, %v", out, err)
	}
	if len(used) != 2 || used[0] == used[1] {
		t.Fatalf("expected a fresh session on retry, got %v", used)
	}
}

func TestDoGivesUpAfterSecondFailure(t *testing.T) {
	var created int32
	r := New[string]("bard", counterFactory(&created), zap.NewNop())
	boom := errors.New("boom")

	calls := 0
	out, err := r.Do(context.Background(), "1", func(context.Context, string) (string, error) {
		calls++
		return "partial", boom
	})
	if out != "" {
		t.Fatalf("Do() out = %q, want empty", out)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("Do() err = %v, want wrapped boom", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDoRetriesFactoryFailure(t *testing.T) {
	attempts := 0
	factory := func(context.Context, string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("wrapper down")
		}
		return "s", nil
	}
	r := New[string]("bing", factory, zap.NewNop())

	out, err := r.Do(context.Background(), "1", func(_ context.Context, s string) (string, error) {
		return s, nil
	})
	if err != nil || out != "s" {
		t.Fatalf("Do() = %q, %v", out, err)
	}
}

func TestDoSerializesPerKey(t *testing.T) {
	var created int32
	r := New[string]("gpt", counterFactory(&created), zap.NewNop())

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Do(context.Background(), "same", func(context.Context, string) (string, error) {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return "", nil
			})
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("max concurrent calls for one key = %d, want 1", maxActive)
	}
}

func TestDoRunsKeysConcurrently(t *testing.T) {
	var created int32
	r := New[string]("gpt", counterFactory(&created), zap.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Do(context.Background(), "a", func(context.Context, string) (string, error) {
			close(started)
			<-release
			return "a", nil
		})
	}()
	<-started

	finished := make(chan string, 1)
	go func() {
		out, _ := r.Do(context.Background(), "b", func(context.Context, string) (string, error) {
			return "b", nil
		})
		finished <- out
	}()

	select {
	case out := <-finished:
		if out != "b" {
			t.Errorf("Do(b) = %q", out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("key b blocked by a running call on key a")
	}
	close(release)
	<-done
}

func TestResetWaitsForRunningCall(t *testing.T) {
	var created int32
	r := New[string]("gpt", counterFactory(&created), zap.NewNop())

	started := make(chan struct{})
	release := make(chan struct{})
	callDone := make(chan struct{})
	go func() {
		defer close(callDone)
		_, _ = r.Do(context.Background(), "a", func(context.Context, string) (string, error) {
			close(started)
			<-release
			return "ok", nil
		})
	}()
	<-started

	resetDone := make(chan error, 1)
	go func() { resetDone <- r.Reset(context.Background(), "a") }()

	select {
	case <-resetDone:
		t.Fatal("Reset returned while a call on the key was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-callDone
	select {
	case err := <-resetDone:
		if err != nil {
			t.Fatalf("Reset() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Reset did not finish after the call returned")
	}

	// после сброса создаётся новая сессия
	var got string
	_, _ = r.Do(context.Background(), "a", func(_ context.Context, s string) (string, error) {
		got = s
		return "", nil
	})
	if got != "a-2" {
		t.Errorf("session after reset = %q, want a-2", got)
	}
}

func TestDoHonoursContextWhileWaiting(t *testing.T) {
	var created int32
	r := New[string]("gpt", counterFactory(&created), zap.NewNop())

	started := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		_, _ = r.Do(context.Background(), "k", func(context.Context, string) (string, error) {
			close(started)
			<-unblock
			return "", nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	_, err := r.Do(ctx, "k", func(context.Context, string) (string, error) {
		called = true
		return "", nil
	})
	close(unblock)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do() err = %v, want deadline exceeded", err)
	}
	if called {
		t.Fatal("call ran without the lock")
	}
}

func TestStoreBackedSessions(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryRepo()
	dialogs := store.NewDict[string](repo, "claude_dialogs")

	var created int32
	r := New[string]("claude", counterFactory(&created), zap.NewNop(), WithStore[string](dialogs))
	_, _ = r.Do(ctx, "3", func(context.Context, string) (string, error) { return "", nil })

	if s, ok := dialogs.Get("3"); !ok || s != "3-1" {
		t.Fatalf("stored session = %q, %v", s, ok)
	}

	// новый процесс подхватывает сессию из хранилища
	reloaded := store.NewDict[string](repo, "claude_dialogs")
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	var created2 int32
	r2 := New[string]("claude", counterFactory(&created2), zap.NewNop(), WithStore[string](reloaded))
	var got string
	_, _ = r2.Do(ctx, "3", func(_ context.Context, s string) (string, error) {
		got = s
		return "", nil
	})
	if got != "3-1" || created2 != 0 {
		t.Fatalf("reloaded session = %q, factory calls = %d", got, created2)
	}

	if err := r2.Reset(ctx, "3"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, ok := reloaded.Get("3"); ok {
		t.Fatal("session still stored after Reset")
	}
}

func TestEvictIdleEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var created int32
	r := New[string]("gpt", counterFactory(&created), zap.NewNop(), withClock[string](clock))
	noop := func(context.Context, string) (string, error) { return "", nil }

	_, _ = r.Do(context.Background(), "old", noop)
	now = now.Add(time.Hour)
	_, _ = r.Do(context.Background(), "fresh", noop)

	if n := r.Evict(30 * time.Minute); n != 1 {
		t.Fatalf("Evict() = %d, want 1", n)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	// занятые записи не трогаем
	busy := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_, _ = r.Do(context.Background(), "fresh", func(context.Context, string) (string, error) {
			close(busy)
			<-done
			return "", nil
		})
	}()
	<-busy
	now = now.Add(2 * time.Hour)
	if n := r.Evict(time.Minute); n != 0 {
		t.Fatalf("Evict() removed a busy entry")
	}
	close(done)
}
