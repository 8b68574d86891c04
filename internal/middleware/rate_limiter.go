package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/apierror"
)

// ── Fixed window per IP ───────────────────────────────────────────────────────

type ventanaIP struct {
	count     int
	windowEnd time.Time
}

// limitador counts requests per client IP inside fixed windows.
type limitador struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*ventanaIP
}

func newLimitador(limit int, window time.Duration) *limitador {
	return &limitador{limit: limit, window: window, now: time.Now, entries: make(map[string]*ventanaIP)}
}

// permitir registers one hit for ip and reports whether it is within the
// limit, plus the end of the current window.
func (l *limitador) permitir(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &ventanaIP{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purgar drops expired windows and returns how many were removed.
func (l *limitador) purgar() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			n++
		}
	}
	return n
}

func (l *limitador) purgarCada(intervalo time.Duration, nombre string) {
	ticker := time.NewTicker(intervalo)
	defer ticker.Stop()
	for range ticker.C {
		if n := l.purgar(); n > 0 {
			log.Debug().Str("limiter", nombre).Int("purged", n).Msg("rate limiter entries purged")
		}
	}
}

const purgeInterval = 5 * time.Minute

// ── Middlewares ───────────────────────────────────────────────────────────────

// LoginRateLimiter limits login attempts to limit per minute per IP.
func LoginRateLimiter(limit int) gin.HandlerFunc {
	l := newLimitador(limit, time.Minute)
	go l.purgarCada(purgeInterval, "login")
	return limitar(l, "Demasiados intentos de login. Intente en 1 minuto.")
}

// RateLimiter is the general API limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newLimitador(limit, window)
	go l.purgarCada(purgeInterval, "api")
	return limitar(l, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}

func limitar(l *limitador, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, fin := l.permitir(c.ClientIP())
		if !ok {
			c.Header("Retry-After", fin.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}
