package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeAccess TokenType = "access"

// Claims identify an operator of the agent. There is no login flow; tokens
// are minted out of band by cmd/issue-token.
type Claims struct {
	jwt.RegisteredClaims

	Operator  string    `json:"operator"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
