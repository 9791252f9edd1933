// Package memory implements the order and product repositories in process
// memory. Each store owns its collection, commits copy-on-write snapshots and
// broadcasts every commit to its watchers.
package memory

import (
	"context"
	"sync"
)

// feed fans committed snapshots out to watchers. Every watcher has a one-slot
// mailbox: an unread snapshot is replaced by the newer one, so publish never
// blocks and a slow watcher always converges on the latest state.
type feed[T any] struct {
	mu      sync.Mutex
	current []T
	clone   func([]T) []T
	subs    map[chan []T]struct{}
}

func newFeed[T any](clone func([]T) []T) *feed[T] {
	return &feed[T]{
		current: []T{},
		clone:   clone,
		subs:    make(map[chan []T]struct{}),
	}
}

// publish replaces the current snapshot and offers it to every watcher. The
// caller must not modify snapshot afterwards.
func (f *feed[T]) publish(snapshot []T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current = snapshot
	for ch := range f.subs {
		offer(ch, f.clone(snapshot))
	}
}

// watch registers a watcher primed with the current snapshot. The channel is
// closed once ctx is done. A ctx that can never be canceled registers the
// watcher for the lifetime of the feed.
func (f *feed[T]) watch(ctx context.Context) <-chan []T {
	ch := make(chan []T, 1)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	ch <- f.clone(f.current)
	f.mu.Unlock()

	if ctx.Done() == nil {
		return ch
	}
	go func() {
		<-ctx.Done()

		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, ch)
		close(ch)
	}()

	return ch
}

// watchers returns the number of registered watchers.
func (f *feed[T]) watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// offer drops any unread value in ch and sends v. Must be called with the feed
// lock held; publish is the only sender.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
