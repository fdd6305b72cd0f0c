package controller

import (
	"testing"
	"time"
)

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe(4)
	ch2, cancel2 := b.Subscribe(4)
	defer cancel2()
	c := New(Config{Publisher: b})
	c.Pause()
	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Name != EventPaused {
				t.Fatalf("unexpected event %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatalf("event not delivered")
		}
	}
	cancel1()
	cancel1()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	if n := b.Subscribers(); n != 1 {
		t.Fatalf("subscribers=%d", n)
	}
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	_, cancel := b.Subscribe(1)
	defer cancel()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Name: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	ch, _ := b.Subscribe(1)
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	late, cancel := b.Subscribe(1)
	cancel()
	if _, ok := <-late; ok {
		t.Fatalf("subscription after close should be closed")
	}
}

func TestMultiPublisher(t *testing.T) {
	a, b := NewMemoryPublisher(), NewMemoryPublisher()
	c := New(Config{Publisher: MultiPublisher{a, b}})
	c.Shutdown()
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("fan-out failed: %v %v", a.Names(), b.Names())
	}
	if a.Events()[0].Time.IsZero() {
		t.Fatalf("event time not set")
	}
}
