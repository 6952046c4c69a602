package internal_review

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LinkTokenTTL bounds how long an emailed login link stays usable.
const LinkTokenTTL = 15 * time.Minute

type linkClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignLinkToken mints the short-lived token embedded in a login email link.
// It proves control of the mailbox; the holder exchanges it for a stored
// session token.
func SignLinkToken(secret, email string) (string, error) {
	claims := linkClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "moment-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(LinkTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign link token: %w", err)
	}
	return signed, nil
}

// VerifyLinkToken validates a login link token and returns the email it was
// issued for.
func VerifyLinkToken(secret, tokenString string) (string, error) {
	var claims linkClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid link token: %w", err)
	}
	if !token.Valid || claims.Email == "" {
		return "", fmt.Errorf("invalid link token")
	}
	return claims.Email, nil
}
