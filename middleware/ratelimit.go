package middleware

import (
	"strings"
	"sync"
	"time"

	"conference-webapp/errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// UserLimiter applies a token bucket per user id and periodically evicts
// idle entries.
type UserLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byUser  map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserLimiter returns nil, which allows everything, when rps or burst is
// not positive.
func NewUserLimiter(rps float64, burst int, idleTTL time.Duration) *UserLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &UserLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byUser:  make(map[string]*limiterEntry),
		idleTTL: idleTTL,
	}
}

func (l *UserLimiter) Allow(user string, now time.Time) bool {
	if l == nil {
		return true
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byUser[user]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byUser[user] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byUser {
			if v.lastSeen.Before(cutoff) {
				delete(l.byUser, k)
			}
		}
	}
	return allowed
}

// RateLimit throttles authorized callers. It must run after Authorize.
func RateLimit(l *UserLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who, err := Identity(c)
		if err != nil {
			return errors.Raise(c, err)
		}
		if !l.Allow(who.UserID, time.Now()) {
			return errors.RaiseTooManyRequestsError(c, "slow down")
		}
		return c.Next()
	}
}
