package handler

import (
	"context"
	"net/http"

	"banking-service/internal/domain"
	"banking-service/internal/usecase"
	"banking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type singleAccountOp func(ctx context.Context, accountNumber string, amount decimal.Decimal, claims domain.Claims) (*domain.TransactionResult, error)

func singleAccountHandler(op singleAccountOp, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type requestBody struct {
			AccountNumber string          `json:"account_number"`
			Amount        decimal.Decimal `json:"amount"`
		}

		claims, err := claimsFrom(r)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body requestBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, logger, err)
			return
		}

		res, err := op(r.Context(), body.AccountNumber, body.Amount, claims)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, res)
	}
}

func DepositHandler(uc *usecase.TransactionUsecase, logger *zap.Logger) http.HandlerFunc {
	return singleAccountHandler(uc.Deposit, logger)
}

func WithdrawHandler(uc *usecase.TransactionUsecase, logger *zap.Logger) http.HandlerFunc {
	return singleAccountHandler(uc.Withdraw, logger)
}

func TransferHandler(uc *usecase.TransactionUsecase, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type requestBody struct {
			FromAccount string          `json:"from_account"`
			ToAccount   string          `json:"to_account"`
			Amount      decimal.Decimal `json:"amount"`
		}

		claims, err := claimsFrom(r)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body requestBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, logger, err)
			return
		}

		res, err := uc.Transfer(r.Context(), body.FromAccount, body.ToAccount, body.Amount, claims)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, res)
	}
}

func HistoryHandler(uc *usecase.TransactionUsecase, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFrom(r)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		txs, err := uc.History(r.Context(), chi.URLParam(r, "accountNumber"), claims)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		if txs == nil {
			txs = []*domain.Transaction{}
		}
		response.JSON(w, http.StatusOK, txs)
	}
}
