package handler

import (
	"net/http"
	"time"

	"banking-service/internal/domain"
	"banking-service/pkg/jwtutil"
	"banking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminTokenHandler issues an Admin token. Development only.
func AdminTokenHandler(tokens *jwtutil.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, exp, err := tokens.Generate(string(domain.RoleAdmin), "")
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp})
	}
}

// UserTokenHandler issues a User token bound to one account. Development only.
func UserTokenHandler(tokens *jwtutil.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountNumber := chi.URLParam(r, "accountNumber")
		if accountNumber == "" {
			response.Error(w, http.StatusBadRequest, "Missing account number")
			return
		}

		tok, exp, err := tokens.Generate(string(domain.RoleUser), accountNumber)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, tokenResponse{Token: tok, ExpiresAt: exp})
	}
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
