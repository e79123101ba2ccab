package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adnanfazil/ChatApp/internal/model"
)

// ErrInvalidCredential is the only error Verify returns. Missing, malformed,
// expired and badly signed tokens all collapse into it so the handshake
// leaks nothing about why a credential was refused.
var ErrInvalidCredential = errors.New("invalid credential")

// Verifier validates a bearer credential and yields the subject identity.
type Verifier interface {
	Verify(token string) (model.Identity, error)
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a Verifier for HS256 tokens signed with the given
// secret. The subject claim carries the user id.
func NewJWTVerifier(secret string) Verifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(tokenString string) (model.Identity, error) {
	if tokenString == "" {
		return "", ErrInvalidCredential
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredential
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", ErrInvalidCredential
	}

	id := model.ParseIdentity(claims.Subject)
	if id.IsZero() {
		return "", ErrInvalidCredential
	}
	return id, nil
}
