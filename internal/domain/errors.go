package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies domain failures so outer layers can map them to distinct
// outcomes without looking at messages.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindInsufficientFunds
	KindIdentifierExhausted
	KindAtomicCommit
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindIdentifierExhausted:
		return "identifier_exhausted"
	case KindAtomicCommit:
		return "atomic_commit"
	}
	return "internal"
}

// ValidationError is a malformed request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// AuthorizationError means the caller may not act on AccountNumber.
type AuthorizationError struct {
	AccountNumber string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("you do not have sufficient permissions to act on account %s", e.AccountNumber)
}

// AccountNotFoundError means no account carries AccountNumber.
type AccountNotFoundError struct {
	AccountNumber string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account with number %s not found", e.AccountNumber)
}

// InsufficientFundsError means the balance is below the requested amount.
type InsufficientFundsError struct {
	AccountNumber string
	Requested     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s for amount %s", e.AccountNumber, e.Requested.String())
}

// IdentifierExhaustedError means no unique account number was found within Attempts.
type IdentifierExhaustedError struct {
	Attempts int
}

func (e *IdentifierExhaustedError) Error() string {
	return fmt.Sprintf("failed to generate a unique account number after %d attempts", e.Attempts)
}

// AtomicCommitError wraps a failure raised while writes were pending in a session.
// The session has already been aborted when this error is returned; Err is the
// original failure, unchanged.
type AtomicCommitError struct {
	Operation string
	Err       error
}

func (e *AtomicCommitError) Error() string {
	return fmt.Sprintf("%s: atomic commit failed: %v", e.Operation, e.Err)
}

func (e *AtomicCommitError) Unwrap() error {
	return e.Err
}

// KindOf reports the taxonomy kind of err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	var (
		validation   *ValidationError
		authz        *AuthorizationError
		notFound     *AccountNotFoundError
		insufficient *InsufficientFundsError
		exhausted    *IdentifierExhaustedError
		commit       *AtomicCommitError
	)
	switch {
	case err == nil:
		return KindInternal
	// commit failures first: the wrapped cause may itself be a typed error
	case errors.As(err, &commit):
		return KindAtomicCommit
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &authz):
		return KindAuthorization
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &insufficient):
		return KindInsufficientFunds
	case errors.As(err, &exhausted):
		return KindIdentifierExhausted
	}
	return KindInternal
}
