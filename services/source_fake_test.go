package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"motion-monitor/be/realtime"
)

// fakeSource is an in-memory realtime.Source for unit tests.
type fakeSource struct {
	mu           sync.Mutex
	subs         []*fakeSub
	paths        []string
	subscribeErr error
	// leaky subscriptions keep delivering after Cancel
	leaky bool
}

type fakeSub struct {
	mu       sync.Mutex
	ch       chan realtime.Snapshot
	done     chan struct{}
	once     sync.Once
	closed   bool
	leaky    bool
	canceled atomic.Bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{}
}

func (f *fakeSource) Subscribe(ctx context.Context, path string) (*realtime.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}

	sub := &fakeSub{
		ch:    make(chan realtime.Snapshot),
		done:  make(chan struct{}),
		leaky: f.leaky,
	}
	f.subs = append(f.subs, sub)
	f.paths = append(f.paths, path)
	return realtime.NewSubscription(sub.ch, sub.cancel), nil
}

func (f *fakeSource) subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeSource) last() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (s *fakeSub) cancel() {
	s.canceled.Store(true)
	if s.leaky {
		return
	}
	s.close()
}

func (s *fakeSub) close() {
	s.once.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *fakeSub) isCanceled() bool {
	return s.canceled.Load()
}

var errSubscriptionClosed = errors.New("subscription closed")

// send blocks until the consumer has taken the snapshot.
func (s *fakeSub) send(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSubscriptionClosed
	}
	var raw []byte
	if value != "" {
		raw = []byte(value)
	}
	select {
	case s.ch <- realtime.Snapshot{Value: raw}:
		return nil
	case <-s.done:
		return errSubscriptionClosed
	}
}
