package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"banking-service/internal/metrics"
	"banking-service/pkg/response"

	"github.com/redis/go-redis/v9"
)

// RateLimiter allows limit requests per caller in each window. A caller that goes over is
// locked out for lockout. Redis errors fail open.
func RateLimiter(rdb redis.Cmdable, limit int, window, lockout time.Duration, keyPrefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			counterKey := keyPrefix + ":" + clientID(r)
			lockKey := counterKey + ":locked"

			locked, err := rdb.PTTL(ctx, lockKey).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if locked > 0 {
				tooMany(w, locked)
				return
			}

			var hits *redis.IntCmd
			_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				hits = pipe.Incr(ctx, counterKey)
				pipe.ExpireNX(ctx, counterKey, window)
				return nil
			})
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			used := int(hits.Val())
			if used > limit {
				rdb.Set(ctx, lockKey, 1, lockout)
				tooMany(w, lockout)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-used))
			next.ServeHTTP(w, r)
		})
	}
}

func tooMany(w http.ResponseWriter, retryIn time.Duration) {
	metrics.RateLimitExceeded.Inc()
	w.Header().Set("Retry-After", strconv.Itoa(int(retryIn.Round(time.Second).Seconds())))
	response.Error(w, http.StatusTooManyRequests, "rate limit exceeded, retry in "+retryIn.Round(time.Second).String())
}

// clientID prefers the authenticated account, then the forwarded or remote address.
func clientID(r *http.Request) string {
	if claims, ok := GetClaims(r.Context()); ok && claims.AccountNumber != "" {
		return "acct:" + claims.AccountNumber
	}
	addr := r.Header.Get("X-Forwarded-For")
	if addr == "" {
		addr = r.RemoteAddr
	}
	first, _, _ := strings.Cut(addr, ",")
	return "ip:" + strings.TrimSpace(first)
}
