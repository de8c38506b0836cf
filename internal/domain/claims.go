package domain

// Role is the caller's permission level.
type Role string

const (
	RoleAdmin Role = "Admin" // elevated: any account
	RoleUser  Role = "User"  // standard: bound to one account
)

// Claim types carried in tokens and in the claim map handed to the guard.
const (
	ClaimRole          = "role"
	ClaimAccountNumber = "account_number"
)

// Claims is the caller identity the authorization guard decides on.
type Claims struct {
	Role          Role
	AccountNumber string
}

// ClaimsFromMap builds Claims from a claim-type to claim-value mapping.
func ClaimsFromMap(m map[string]string) Claims {
	return Claims{
		Role:          Role(m[ClaimRole]),
		AccountNumber: m[ClaimAccountNumber],
	}
}

func (c Claims) IsElevated() bool {
	return c.Role == RoleAdmin
}
