package usecase

import "banking-service/internal/domain"

// Authorize decides whether claims may act on accountNumber. Admins may act on any
// account; everyone else only on the account their token is bound to.
func Authorize(claims domain.Claims, accountNumber string) error {
	if claims.IsElevated() {
		return nil
	}
	if claims.AccountNumber != "" && claims.AccountNumber == accountNumber {
		return nil
	}
	return &domain.AuthorizationError{AccountNumber: accountNumber}
}
