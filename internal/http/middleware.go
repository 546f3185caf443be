package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/marketplace-booking/internal/application"
)

const requestIDHeader = "X-Request-ID"

// SessionValidator resolves the signed-in principal.
type SessionValidator interface {
	Principal(ctx context.Context) (application.Principal, error)
}

// RequireSession rejects requests without a live session and attaches the
// principal to the request context.
func RequireSession(validator SessionValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := validator.Principal(r.Context())
			if err != nil {
				switch {
				case errors.Is(err, application.ErrSessionExpired):
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{ErrorCode: "SESSION_EXPIRED", Message: "session expired, sign in again"})
				case errors.Is(err, application.ErrUnauthorized):
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{ErrorCode: "UNAUTHORIZED", Message: errMissingPrincipal.Error()})
				default:
					responder.loggerFor(r.Context()).Error("session lookup failed", zap.Error(err))
					responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{ErrorCode: "INTERNAL", Message: "failed to read session"})
				}
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger tags each request with an ID (reusing X-Request-ID when the
// caller sent one) and logs its completion.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			logger := base.With(
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			ctx := ContextWithLogger(r.Context(), logger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.Info("request completed", zap.Int("status", rec.status), zap.Duration("duration", time.Since(start)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// CORS allows the browser front end to call the gateway.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Location"},
	})
	return c.Handler
}

// RateLimit applies a token bucket per client IP. Buckets idle for ten
// minutes are dropped.
func RateLimit(rps float64, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := newClientLimiter(rate.Limit(rps), burst, 10*time.Minute, time.Now)
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.allow(ip) {
				responder.loggerFor(r.Context()).Warn("rate limit exceeded", zap.String("ip", ip))
				w.Header().Set("Retry-After", "1")
				responder.writeJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{ErrorCode: "RATE_LIMITED", Message: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type clientLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	visitors map[string]*visitor
	lastScan time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(limit rate.Limit, burst int, idleTTL time.Duration, now func() time.Time) *clientLimiter {
	return &clientLimiter{
		limit:    limit,
		burst:    burst,
		idleTTL:  idleTTL,
		now:      now,
		visitors: make(map[string]*visitor),
	}
}

func (l *clientLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastScan) > l.idleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastScan = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
