package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck flags a goroutine leak: unhealthy once the count
// passes limit.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(_ context.Context) error {
		n := runtime.NumGoroutine()
		if n > limit {
			return errors.Errorf("goroutine count %d exceeds limit %d", n, limit)
		}
		return nil
	}
}

// GCMaxPauseCheck flags memory pressure: unhealthy when any recorded
// stop-the-world pause exceeded limit.
func GCMaxPauseCheck(limit time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > limit {
				return errors.Errorf("GC pause %s exceeds limit %s", pause, limit)
			}
		}
		return nil
	}
}
