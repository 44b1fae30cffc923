package models

import "github.com/golang-jwt/jwt/v5"

// Token scopes. A token presented for a purpose other than the one it was
// minted with is rejected.
const (
	ScopeAccessToken  = "access_token"
	ScopeRefreshToken = "refresh_token"
)

// Claims is the JWT payload for access and refresh tokens. Email
// verification tokens carry RegisteredClaims only (no scope).
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenPair is the response body of login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
