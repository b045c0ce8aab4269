package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub002/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowEntry tracks requests per IP within a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter is a per-IP fixed-window counter. Expired entries are swept
// on the request path once per purgeInterval, so no background goroutine is
// needed.
type windowLimiter struct {
	name      string
	limit     int
	window    time.Duration
	message   string
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]*windowEntry
	nextPurge time.Time
}

const purgeInterval = 5 * time.Minute

func newWindowLimiter(name string, limit int, window time.Duration, message string) *windowLimiter {
	return &windowLimiter{
		name: name, limit: limit, window: window, message: message,
		now: time.Now, entries: make(map[string]*windowEntry),
	}
}

// allow records one hit for ip and reports whether it is within the limit.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextPurge) {
		l.purge(now)
		l.nextPurge = now.Add(purgeInterval)
	}

	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *windowLimiter) purge(now time.Time) {
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Str("limiter", l.name).
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.entries)).
			Msg("rate limiter purged")
	}
}

func (l *windowLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts per IP per minute. Non-positive
// limits fall back to 20.
func LoginRateLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 20
	}
	return newWindowLimiter("login", perMinute, time.Minute,
		"Demasiados intentos de login. Intente en 1 minuto.").handler()
}

// RateLimiter is the general per-IP limiter for the whole API.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window,
		"Demasiadas solicitudes. Intente nuevamente en un momento.").handler()
}
