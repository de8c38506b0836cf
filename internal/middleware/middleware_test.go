package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"banking-service/internal/domain"
	"banking-service/pkg/jwtutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func claimsEcho(t *testing.T, got *domain.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		require.True(t, ok)
		*got = c
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth(t *testing.T) {
	jwt := jwtutil.NewManager(jwtutil.JWTConfig{Secret: "s", Issuer: "banking-service"})
	tok, _, err := jwt.Generate("User", "UA1")
	require.NoError(t, err)

	var got domain.Claims
	h := RequireAuth(jwt)(claimsEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domain.Claims{Role: domain.RoleUser, AccountNumber: "UA1"}, got)
}

func TestRequireAuthRejects(t *testing.T) {
	jwt := jwtutil.NewManager(jwtutil.JWTConfig{Secret: "s"})
	h := RequireAuth(jwt)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{"missing": "", "garbage": "Bearer abc.def.ghi"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(domain.RoleAdmin)(ok)

	tests := []struct {
		name   string
		claims *domain.Claims
		want   int
	}{
		{"admin", &domain.Claims{Role: domain.RoleAdmin}, http.StatusOK},
		{"user", &domain.Claims{Role: domain.RoleUser, AccountNumber: "UA1"}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), *tt.claims))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Regexp(t, `^req_[0-9A-Z]{26}$`, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "upstream-1", seen)
}

func TestAccessLogPassesThrough(t *testing.T) {
	h := AccessLog(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	called := false
	h := RateLimiter(rdb, 1, time.Minute, time.Minute, "rl")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "ip:10.0.0.1", clientID(req))

	req = req.WithContext(WithClaims(req.Context(), domain.Claims{Role: domain.RoleUser, AccountNumber: "UA1"}))
	assert.Equal(t, "acct:UA1", clientID(req))
}
