package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of client IPs to their rate limiters.
// Entries idle past limiterIdleTTL are swept so the map does not grow
// for the process lifetime.
type rateLimiterStore struct {
	limiters  map[string]*clientLimiter
	mu        sync.Mutex
	perMin    int
	lastSweep time.Time
	now       func() time.Time
}

func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	if t.Sub(s.lastSweep) >= limiterIdleTTL {
		s.sweepLocked(t)
	}

	cl, exists := s.limiters[ip]
	if !exists {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin),
		}
		s.limiters[ip] = cl
	}
	cl.lastSeen = t
	return cl.limiter
}

func (s *rateLimiterStore) sweepLocked(t time.Time) {
	for ip, cl := range s.limiters {
		if t.Sub(cl.lastSeen) >= limiterIdleTTL {
			delete(s.limiters, ip)
		}
	}
	s.lastSweep = t
}

// RateLimitMiddleware limits requests per client IP. One saturated caller
// cannot starve other concurrent call sessions.
func RateLimitMiddleware(perMin int, logger *zap.Logger) gin.HandlerFunc {
	if perMin <= 0 {
		perMin = 60
	}
	store := &rateLimiterStore{
		limiters: make(map[string]*clientLimiter),
		perMin:   perMin,
		now:      time.Now,
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.getLimiter(ip).Allow() {
			logger.Warn("rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
