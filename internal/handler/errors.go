package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"banking-service/internal/domain"
	"banking-service/internal/middleware"
	"banking-service/pkg/response"

	"go.uber.org/zap"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInsufficientFunds:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError renders err in the response envelope. Server-side failures are logged
// and their details are not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		msg := "Internal server error"
		if kind == domain.KindIdentifierExhausted {
			msg = "Could not allocate an account number, try again later"
		}
		response.ErrorWithCode(w, status, kind.String(), msg)
		return
	}
	response.ErrorWithCode(w, status, kind.String(), err.Error())
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON body"}
	}
	return nil
}

func claimsFrom(r *http.Request) (domain.Claims, error) {
	c, ok := middleware.GetClaims(r.Context())
	if !ok {
		return domain.Claims{}, errors.New("no claims on request context")
	}
	return c, nil
}
