package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New[string]()
	sub := b.Subscribe()
	b.Publish("hello")
	select {
	case got := <-sub:
		if got != "hello" {
			t.Fatalf("expected hello got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishNonBlocking(t *testing.T) {
	b := New[int]()
	b.Subscribe() // never drained
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on slow subscriber")
	}
}

func TestUnsubscribeCloses(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatalf("expected closed channel after unsubscribe")
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe()
	b.Close()
	b.Publish(1) // must not panic
	if _, ok := <-sub; ok {
		t.Fatalf("expected closed channel after Close")
	}
}
