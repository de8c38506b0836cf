package router

import (
	"net/http"
	"time"

	"banking-service/internal/domain"
	"banking-service/internal/handler"
	"banking-service/internal/middleware"
	"banking-service/internal/usecase"
	"banking-service/pkg/jwtutil"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Accounts     *usecase.AccountUsecase
	Transactions *usecase.TransactionUsecase
	Tokens       *jwtutil.Manager
	Logger       *zap.Logger

	// RateLimit wraps the authenticated API when set.
	RateLimit func(http.Handler) http.Handler
	// DevTokens exposes the token issuing endpoints.
	DevTokens bool
}

func New(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(handler.Instrument)

	r.Get("/health", handler.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", handler.CreateAccountHandler(d.Accounts, logger))

		if d.DevTokens {
			r.Get("/auth/admin-token", handler.AdminTokenHandler(d.Tokens, logger))
			r.Get("/auth/user-token/{accountNumber}", handler.UserTokenHandler(d.Tokens, logger))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Tokens))
			if d.RateLimit != nil {
				r.Use(d.RateLimit)
			}

			r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/accounts", handler.ListAccountsHandler(d.Accounts, logger))
			r.Get("/accounts/{accountNumber}", handler.GetAccountHandler(d.Accounts, logger))
			r.Get("/accounts/{accountNumber}/transactions", handler.HistoryHandler(d.Transactions, logger))

			r.Post("/transactions/deposit", handler.DepositHandler(d.Transactions, logger))
			r.Post("/transactions/withdraw", handler.WithdrawHandler(d.Transactions, logger))
			r.Post("/transactions/transfer", handler.TransferHandler(d.Transactions, logger))
		})
	})

	return r
}
