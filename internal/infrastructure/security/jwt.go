package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ValidateIdentityToken validates a JWT and returns the identity (subject)
// it carries. The token is signed with the shared registry secret, not a
// per-tenant one, because identity is resolved before any tenant is known.
func ValidateIdentityToken(tokenString, jwtSecret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	identity, _ := claims["sub"].(string)
	if identity == "" {
		return "", errors.New("token has no subject")
	}
	return identity, nil
}

// GenerateIdentityToken creates a signed JWT for an authenticated identity.
func GenerateIdentityToken(identity, jwtSecret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": identity,
		"iat": time.Now().UTC().Unix(),
		"exp": time.Now().UTC().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
