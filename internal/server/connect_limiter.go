package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultConnectMaxFailures = 10
	defaultConnectWindow      = 5 * time.Minute
	defaultConnectBlock       = 15 * time.Minute
	connectSweepEvery         = 64
)

// connectLimiter blocks a client address after repeated failed logins.
type connectLimiter struct {
	mu          sync.Mutex
	clients     map[string]connectAttempts
	maxFailures int
	window      time.Duration
	block       time.Duration
	calls       int
}

type connectAttempts struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func newConnectLimiter(maxFailures int, window, block time.Duration) *connectLimiter {
	if maxFailures <= 0 || window <= 0 || block <= 0 {
		return nil
	}
	return &connectLimiter{
		clients:     make(map[string]connectAttempts),
		maxFailures: maxFailures,
		window:      window,
		block:       block,
	}
}

// Blocked reports whether key is currently locked out.
func (l *connectLimiter) Blocked(key string, now time.Time) bool {
	if l == nil || key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	attempts, ok := l.clients[key]
	if !ok {
		return false
	}
	attempts.lastSeen = now
	l.clients[key] = attempts
	return now.Before(attempts.blockedUntil)
}

// Fail records one failed login for key.
func (l *connectLimiter) Fail(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	attempts := l.clients[key]
	if attempts.windowStart.IsZero() || now.Sub(attempts.windowStart) > l.window {
		attempts.failures = 0
		attempts.windowStart = now
	}
	attempts.failures++
	if attempts.failures >= l.maxFailures {
		attempts.blockedUntil = now.Add(l.block)
		attempts.failures = 0
		attempts.windowStart = time.Time{}
	}
	attempts.lastSeen = now
	l.clients[key] = attempts
}

// Succeed clears the history for key.
func (l *connectLimiter) Succeed(key string) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, key)
}

func (l *connectLimiter) sweepLocked(now time.Time) {
	l.calls++
	if l.calls%connectSweepEvery != 0 {
		return
	}
	idle := 2 * max(l.window, l.block)
	for key, attempts := range l.clients {
		if now.Sub(attempts.lastSeen) > idle {
			delete(l.clients, key)
		}
	}
}

// connectClientKey identifies the caller by remote host.
func connectClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
