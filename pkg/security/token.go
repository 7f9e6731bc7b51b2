package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const relayIssuer = "subscriber-journey"

var ErrInvalidToken = errors.New("invalid relay token")

// RelaySigner issues and checks the short-lived HS256 tokens the app presents
// to the mail relay.
type RelaySigner struct {
	secret []byte
	ttl    time.Duration
}

func NewRelaySigner(secret string, ttl time.Duration) *RelaySigner {
	return &RelaySigner{secret: []byte(secret), ttl: ttl}
}

func (s *RelaySigner) Sign(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    relayIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign relay token: %w", err)
	}
	return token, nil
}

func (s *RelaySigner) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(relayIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
