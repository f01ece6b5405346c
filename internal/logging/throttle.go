package logging

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Throttled writes at most burst messages per interval and counts the rest.
// The next message that gets through reports how many were dropped.
type Throttled struct {
	level      Level
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewThrottled creates a throttled logger writing at level l.
func NewThrottled(l Level, every time.Duration, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{level: l, limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Printf logs the message if the limiter allows it. It reports whether the
// message was written.
func (t *Throttled) Printf(format string, args ...interface{}) bool {
	if !Enabled(t.level) {
		return false
	}
	if !t.limiter.Allow() {
		t.suppressed.Add(1)
		return false
	}
	if n := t.suppressed.Swap(0); n > 0 {
		logf(t.level, "(%d similar messages suppressed)", n)
	}
	logf(t.level, format, args...)
	return true
}

// Suppressed returns the number of messages dropped since the last write.
func (t *Throttled) Suppressed() int64 {
	return t.suppressed.Load()
}
