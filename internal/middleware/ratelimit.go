package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// windowLimiter counts requests per client in fixed windows.
// Expired windows are swept at most once per window length.
type windowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mtx       sync.Mutex
	clients   map[string]*clientWindow
	nextSweep time.Time
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

type decision struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

func newWindowLimiter(limit int, window time.Duration, now func() time.Time) *windowLimiter {
	return &windowLimiter{
		limit:   limit,
		window:  window,
		now:     now,
		clients: make(map[string]*clientWindow),
	}
}

func (l *windowLimiter) take(client string) decision {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.sweep(now)

	cw, ok := l.clients[client]
	if !ok || !now.Before(cw.resetAt) {
		cw = &clientWindow{resetAt: now.Add(l.window)}
		l.clients[client] = cw
	}
	if cw.count >= l.limit {
		return decision{resetAt: cw.resetAt}
	}
	cw.count++
	return decision{allowed: true, remaining: l.limit - cw.count, resetAt: cw.resetAt}
}

func (l *windowLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for client, cw := range l.clients {
		if !now.Before(cw.resetAt) {
			delete(l.clients, client)
		}
	}
	l.nextSweep = now.Add(l.window)
}

func (l *windowLimiter) tracked() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

// RateLimit allows rpm requests per client IP per minute. rpm <= 0 disables the limit.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return rateLimit(newWindowLimiter(rpm, time.Minute, time.Now))
}

func rateLimit(l *windowLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l.limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.take(getIp(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.resetAt.Unix(), 10))

			if !d.allowed {
				retryAfter := max(1, int(d.resetAt.Sub(l.now()).Seconds()))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests. Try again later.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
