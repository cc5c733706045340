package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestLockTable_AcquireRelease(t *testing.T) {
	l := newLockTable()
	if err := l.acquire("t1", time.Millisecond); err != nil {
		t.Fatalf("acquire on free lock: %v", err)
	}
	if err := l.acquire("t2", time.Millisecond); err != nil {
		t.Fatalf("locks must be independent per key: %v", err)
	}
	l.release("t1")
	if err := l.acquire("t1", time.Millisecond); err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
}

func TestLockTable_TimesOutWhenHeld(t *testing.T) {
	l := newLockTable()
	if err := l.acquire("t1", time.Millisecond); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	err := l.acquire("t1", 10*time.Millisecond)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout got %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- l.acquire("t1", time.Second) }()
	l.release("t1")
	if err := <-done; err != nil {
		t.Fatalf("waiter should acquire after release: %v", err)
	}
}
