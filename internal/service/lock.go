// Package service implements the order and product services: the only entry
// points that mutate stores, enforcing the rules that span both entities.
package service

import "sync"

// Lock serializes guarded mutations across both services, so a validation
// read and the write it gates observe one joint snapshot of the stores.
// Share a single Lock between the order and product services.
type Lock struct {
	mu sync.Mutex
}

// NewLock returns an unlocked Lock.
func NewLock() *Lock {
	return &Lock{}
}

// Do runs fn while holding the lock. fn must not call another guarded
// service method.
func (l *Lock) Do(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}
