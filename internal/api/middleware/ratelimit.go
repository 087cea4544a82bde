package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dcarbon/emailpreview/internal/util"
)

const (
	limiterIdleTTL    = 30 * time.Minute
	limiterSweepEvery = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket. It
// guards the preview gate against secret guessing.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time

	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given
// burst per client. A non-positive perSecond disables limiting. Idle clients
// are only evicted once Start has been called.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	return rl
}

// Start launches the background sweeper. Calls after the first are no-ops.
func (rl *RateLimiter) Start() {
	rl.startOnce.Do(func() {
		rl.mu.Lock()
		rl.started = true
		rl.mu.Unlock()
		go rl.sweepLoop()
	})
}

// Close stops the background sweeper. It is safe to call without Start.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Started reports whether the sweeper has been launched.
func (rl *RateLimiter) Started() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.started
}

func (rl *RateLimiter) get(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.sweep()
		}
	}
}

// sweep drops clients idle for longer than limiterIdleTTL.
func (rl *RateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	cutoff := rl.now().Add(-limiterIdleTTL)
	for id, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

// Limit returns the gin middleware. Rejected requests get 429 with a plain
// text body.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}
		client := c.ClientIP()
		if !rl.get(client).Allow() {
			GetRequestLogger(c).WithField("client", util.SanitizeForLog(client)).Warn("preview gate rate limit exceeded")
			c.Header("Retry-After", "1")
			c.Abort()
			c.String(http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
