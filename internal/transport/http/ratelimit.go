package http

import "time"

// rateLimiter is a fixed-window counter owned by a single read loop.
type rateLimiter struct {
	limit       int
	window      time.Duration
	now         func() time.Time
	windowStart time.Time
	count       int
}

// newRateLimiter allows limit events per minute. A non-positive limit disables it.
func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, window: time.Minute, now: time.Now}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.now()
	if now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}
	r.count++
	return r.count <= r.limit
}
