package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCount fails when the process runs more than limit goroutines.
func GoroutineCount(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("goroutine count %d exceeds %d", n, limit)
		}
		return nil
	}
}

// MaxCount fails when count reports more than limit. Use it to catch leaked
// subscriptions and similar resources that should stay bounded.
func MaxCount(what string, count func() int, limit int) CheckFunc {
	return func(context.Context) error {
		if n := count(); n > limit {
			return errors.Errorf("%s count %d exceeds %d", what, n, limit)
		}
		return nil
	}
}
