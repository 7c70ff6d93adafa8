package restapi

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"urbanyatra.in/internal/models"
)

// Idle client entries older than this are swept so the limiter map stays
// bounded.
const clientIdleTTL = 3 * time.Minute

// RateLimitMiddleware applies a per-client token bucket keyed by remote IP.
// A zero or negative limit disables limiting entirely.
type RateLimitMiddleware struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	seen     map[string]*client
	done     chan struct{}
	stopOnce sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMiddleware allows requestsPer requests per window per client.
func NewRateLimitMiddleware(requestsPer int, window time.Duration) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limit: rate.Every(window / time.Duration(max(requestsPer, 1))),
		burst: max(requestsPer, 1),
		seen:  make(map[string]*client),
		done:  make(chan struct{}),
	}
	if requestsPer <= 0 {
		m.limit = rate.Inf
	}
	go m.sweep()
	return m
}

// Handler returns the wrapping middleware function.
func (m *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(clientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(models.NewErrorResponse("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Stop terminates the background sweeper. Safe to call more than once.
func (m *RateLimitMiddleware) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *RateLimitMiddleware) allow(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.seen[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.seen[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

func (m *RateLimitMiddleware) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for key, c := range m.seen {
				if time.Since(c.lastSeen) > clientIdleTTL {
					delete(m.seen, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// clientKey extracts the remote IP, ignoring the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
