package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"flowpilot/internal/auth"
	"flowpilot/internal/ratelimit"
)

type contextKey string

const sessionContextKey contextKey = "session"

type rateLimits struct {
	MintsPerHour    int
	ListingsPerHour int
	TotalWritesDay  int
	ReadsPerMinute  int
}

var defaultRateLimits = rateLimits{
	MintsPerHour:    30,
	ListingsPerHour: 20,
	TotalWritesDay:  500,
	ReadsPerMinute:  600,
}

func authMiddleware(sessions *Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, ok := sessions.Lookup(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentSession(ctx context.Context) *Session {
	v := ctx.Value(sessionContextKey)
	sess, _ := v.(*Session)
	return sess
}

func rateLimitMiddleware(limiter *ratelimit.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "missing auth context")
			return
		}

		now := time.Now().UTC()
		for _, c := range classifyRateChecks(r) {
			key := sess.ID + ":" + c.name
			res := limiter.Allow(key, c.limit, c.window, now)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded: "+c.name)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

type rateCheck struct {
	name   string
	limit  int
	window time.Duration
}

func classifyRateChecks(r *http.Request) []rateCheck {
	checks := make([]rateCheck, 0, 2)
	if r.Method == http.MethodGet {
		return append(checks, rateCheck{
			name:   "reads",
			limit:  defaultRateLimits.ReadsPerMinute,
			window: time.Minute,
		})
	}
	checks = append(checks, rateCheck{
		name:   "writes",
		limit:  defaultRateLimits.TotalWritesDay,
		window: 24 * time.Hour,
	})
	if r.Method == http.MethodPost && r.URL.Path == "/api/v1/agents" {
		checks = append(checks, rateCheck{
			name:   "mints",
			limit:  defaultRateLimits.MintsPerHour,
			window: time.Hour,
		})
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/v1/market/listings" {
		checks = append(checks, rateCheck{
			name:   "listings",
			limit:  defaultRateLimits.ListingsPerHour,
			window: time.Hour,
		})
	}
	return checks
}
