package handler

import (
	"net/http"

	"banking-service/internal/usecase"
	"banking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func CreateAccountHandler(uc *usecase.AccountUsecase, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type requestBody struct {
			FirstName string          `json:"first_name"`
			LastName  string          `json:"last_name"`
			Balance   decimal.Decimal `json:"balance"`
		}

		var body requestBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, logger, err)
			return
		}

		account, err := uc.CreateAccount(r.Context(), body.FirstName, body.LastName, body.Balance)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusCreated, account)
	}
}

func ListAccountsHandler(uc *usecase.AccountUsecase, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := uc.ListAccounts(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, accounts)
	}
}

func GetAccountHandler(uc *usecase.AccountUsecase, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFrom(r)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		account, err := uc.GetAccount(r.Context(), chi.URLParam(r, "accountNumber"), claims)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, account)
	}
}
