// Package realtime models the remote status record as an opaque external
// data source: a subscribe operation returning a cancellation handle, and a
// single in-order channel of immutable snapshots.
package realtime

import (
	"context"
	"sync"
)

// Snapshot is one delivered value of a record. An empty Value means the
// record does not exist.
type Snapshot struct {
	Path  string
	Value []byte
}

func (s Snapshot) Exists() bool {
	return len(s.Value) > 0
}

// Source delivers snapshots of a named record.
type Source interface {
	Subscribe(ctx context.Context, path string) (*Subscription, error)
}

// Writer replaces the whole value of a named record.
type Writer interface {
	Set(ctx context.Context, path string, value []byte) error
}

// Subscription is the handle returned by Source.Subscribe. C is closed once
// the subscription ends. Cancel may be called any number of times.
type Subscription struct {
	C <-chan Snapshot

	once   sync.Once
	cancel func()
}

func NewSubscription(c <-chan Snapshot, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// ReadOnce subscribes, takes the first snapshot and releases the subscription.
func ReadOnce(ctx context.Context, source Source, path string) (Snapshot, error) {
	sub, err := source.Subscribe(ctx, path)
	if err != nil {
		return Snapshot{}, err
	}
	defer sub.Cancel()

	select {
	case snap, ok := <-sub.C:
		if !ok {
			return Snapshot{Path: path}, nil
		}
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
