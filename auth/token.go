package auth

import (
	"estate-desk/domain"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "estate-desk"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=OWNER AGENT VISITOR"`
	jwt.RegisteredClaims
}

func (c CustomClaims) Principal() domain.Principal {
	return domain.Principal{
		Email: domain.NormalizeEmail(c.Email),
		Role:  domain.Role(c.Role),
	}
}

// GenerateToken creates a signed JWT carrying the principal.
func GenerateToken(secret []byte, principal domain.Principal, authTokenDuration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Email: domain.NormalizeEmail(principal.Email),
		Role:  string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   domain.NormalizeEmail(principal.Email),
			ExpiresAt: jwt.NewNumericDate(now.Add(authTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	if err := ValidateClaims(*claims); err != nil {
		return "", err
	}

	// HS256 (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature, expiration and issuer of a JWT string.
func ValidateToken(secret []byte, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if err := ValidateClaims(*claims); err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenInvalidClaims, err)
	}
	return claims, nil
}
