package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/pikup-intake/internal/auth"
	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/ukydev/pikup-intake/internal/response"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	DriverContextKey contextKey = "driver"
)

const (
	adminRealm  = `Basic realm="PikUp Admin"`
	driverRealm = `Basic realm="PikUp Driver"`
)

// DriverAuthenticator checks a driver's email and password.
type DriverAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Driver, error)
}

// AuthMiddleware gates the admin and driver routes
type AuthMiddleware struct {
	authService *auth.Service
	drivers     DriverAuthenticator
	log         logrus.FieldLogger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service, drivers DriverAuthenticator, log logrus.FieldLogger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		drivers:     drivers,
		log:         log,
	}
}

// RequireAdmin checks basic-auth credentials against the admin account.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !m.authService.CheckAdmin(user, pass) {
			unauthorized(w, adminRealm, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireDriver accepts either a bearer token issued at login or basic
// auth with the driver's email and password. The driver's claims are added
// to the request context.
func (m *AuthMiddleware) RequireDriver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		var claims *models.DriverClaims
		switch {
		case strings.HasPrefix(authHeader, "Bearer "):
			token, err := m.authService.ExtractTokenFromHeader(authHeader)
			if err == nil {
				claims, err = m.authService.ValidateToken(token)
			}
			if err != nil {
				unauthorized(w, driverRealm, "Invalid token")
				return
			}
		default:
			email, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, driverRealm, "Authentication required")
				return
			}
			driver, err := m.drivers.Authenticate(r.Context(), email, pass)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingCredentials) {
					unauthorized(w, driverRealm, "Invalid credentials")
					return
				}
				m.log.WithError(err).Error("Driver authentication failed")
				response.Error(w, http.StatusInternalServerError, "Authentication unavailable")
				return
			}
			claims = &models.DriverClaims{Email: driver.Email, Name: driver.Name}
		}

		ctx := context.WithValue(r.Context(), DriverContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDriverFromContext extracts driver claims from request context
func GetDriverFromContext(ctx context.Context) (*models.DriverClaims, bool) {
	claims, ok := ctx.Value(DriverContextKey).(*models.DriverClaims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, realm, detail string) {
	w.Header().Set("WWW-Authenticate", realm)
	response.Error(w, http.StatusUnauthorized, detail)
}

// RateLimitMiddleware provides basic rate limiting keyed on the connection
// address. Forwarded headers are not trusted here; a proxy deployment runs
// chi's RealIP ahead of it.
type RateLimitMiddleware struct {
	requests  map[string][]time.Time // IP -> request times
	lastSweep time.Time
	mu        sync.Mutex
	now       func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// RateLimit allows at most maxRequests per client IP within window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			now := m.now()
			windowStart := now.Add(-window)

			m.mu.Lock()
			m.sweep(now, windowStart, window)

			recent := m.requests[clientIP][:0]
			for _, ts := range m.requests[clientIP] {
				if ts.After(windowStart) {
					recent = append(recent, ts)
				}
			}

			if len(recent) >= maxRequests {
				if len(recent) == 0 {
					delete(m.requests, clientIP)
				} else {
					m.requests[clientIP] = recent
				}
				m.mu.Unlock()
				wait := window
				if len(recent) > 0 {
					wait = recent[0].Add(window).Sub(now)
				}
				w.Header().Set("Retry-After", retryAfter(wait))
				response.Error(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			m.requests[clientIP] = append(recent, now)
			m.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// sweep drops clients with no request inside the window. It runs at most
// once per window. The caller holds m.mu.
func (m *RateLimitMiddleware) sweep(now, windowStart time.Time, window time.Duration) {
	if now.Sub(m.lastSweep) < window {
		return
	}
	m.lastSweep = now
	for ip, times := range m.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(m.requests, ip)
		}
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP returns the host part of the connection address.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
