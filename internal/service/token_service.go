package service

import (
	"errors"
	"fmt"
	"time"

	"contacts-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenService mints and validates the three JWT flavours the API uses:
// scoped access tokens, scoped refresh tokens and unscoped email
// verification tokens. All of them carry the user's email as the subject.
type TokenService interface {
	CreateAccessToken(email string) (string, error)
	CreateRefreshToken(email string) (string, error)
	CreateEmailToken(email string) (string, error)

	// ParseAccessToken validates signature, expiry and the access scope and
	// returns the subject email.
	ParseAccessToken(tokenString string) (string, error)

	// DecodeRefreshToken validates signature, expiry and the refresh scope
	// and returns the subject email.
	DecodeRefreshToken(tokenString string) (string, error)

	// EmailFromToken extracts the subject from an email verification token.
	// Returns models.ErrEmailTokenInvalid on any validation failure.
	EmailFromToken(tokenString string) (string, error)
}

type jwtTokenService struct {
	secret          []byte
	method          jwt.SigningMethod
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	emailTokenTTL   time.Duration
	logger          *zap.Logger
}

// NewJWTTokenService creates a TokenService signing with the given secret
// and algorithm (HS256 unless configured otherwise).
func NewJWTTokenService(secret, algorithm string, accessTTL, refreshTTL, emailTTL time.Duration, logger *zap.Logger) (TokenService, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported JWT algorithm: %s", algorithm)
	}
	return &jwtTokenService{
		secret:          []byte(secret),
		method:          method,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		emailTokenTTL:   emailTTL,
		logger:          logger.Named("TokenService"),
	}, nil
}

func (s *jwtTokenService) CreateAccessToken(email string) (string, error) {
	return s.signScoped(email, models.ScopeAccessToken, s.accessTokenTTL)
}

func (s *jwtTokenService) CreateRefreshToken(email string) (string, error) {
	return s.signScoped(email, models.ScopeRefreshToken, s.refreshTokenTTL)
}

// CreateEmailToken mints an unscoped token used in verification links.
func (s *jwtTokenService) CreateEmailToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.emailTokenTTL)),
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign email token", zap.Error(err), zap.String("email", email))
		return "", fmt.Errorf("failed to sign email token: %w", err)
	}
	return signed, nil
}

func (s *jwtTokenService) ParseAccessToken(tokenString string) (string, error) {
	return s.parseScoped(tokenString, models.ScopeAccessToken)
}

func (s *jwtTokenService) DecodeRefreshToken(tokenString string) (string, error) {
	return s.parseScoped(tokenString, models.ScopeRefreshToken)
}

func (s *jwtTokenService) EmailFromToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc)
	if err != nil || !token.Valid {
		s.logger.Debug("Email token validation failed", zap.Error(err))
		return "", models.ErrEmailTokenInvalid
	}
	if claims.Subject == "" {
		return "", models.ErrEmailTokenInvalid
	}
	return claims.Subject, nil
}

func (s *jwtTokenService) signScoped(email, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := models.Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err), zap.String("scope", scope), zap.String("email", email))
		return "", fmt.Errorf("failed to sign %s: %w", scope, err)
	}
	return signed, nil
}

// parseScoped validates a scoped token. Scope mismatch is reported
// separately from all other validation failures so the HTTP layer can
// distinguish "wrong kind of token" from "bad token".
func (s *jwtTokenService) parseScoped(tokenString, wantScope string) (string, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc)
	if err != nil {
		s.logger.Debug("Token validation failed", zap.Error(err), zap.String("wantScope", wantScope))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", models.ErrTokenMalformed
		default:
			return "", models.ErrTokenInvalid
		}
	}
	if !token.Valid {
		return "", models.ErrTokenInvalid
	}
	if claims.Scope != wantScope {
		s.logger.Debug("Token scope mismatch", zap.String("got", claims.Scope), zap.String("want", wantScope))
		return "", models.ErrTokenScope
	}
	if claims.Subject == "" {
		return "", models.ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (s *jwtTokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() != s.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
