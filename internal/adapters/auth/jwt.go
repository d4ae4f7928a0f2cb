// Package auth issues and verifies the admin bearer tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 tokens for the single configured admin account.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	email    string
	password string
	now      func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, adminEmail, adminPassword string) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, email: adminEmail, password: adminPassword, now: time.Now}, nil
}

// Login checks the admin credentials and returns a fresh token.
func (i *Issuer) Login(email, password string) (string, time.Time, error) {
	if i.email == "" || i.password == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	okEmail := subtle.ConstantTimeCompare([]byte(email), []byte(i.email)) == 1
	okPass := subtle.ConstantTimeCompare([]byte(password), []byte(i.password)) == 1
	if !okEmail || !okPass {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return i.Issue(email, RoleAdmin)
}

func (i *Issuer) Issue(email, role string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
