// Package jwt signs and verifies the two bearer-token classes used by the
// service. Access and refresh tokens are signed with distinct secrets, so a
// leaked access secret cannot be used to mint long-lived refresh tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtg-lucifer/sahotsava-be/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Role  models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt: empty secret")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("jwt: non-positive ttl")
	}

	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// NewAccessToken mints a short-lived assertion of {uid, email, role}.
func (c *Codec) NewAccessToken(user models.User) (string, error) {
	const op = "jwt.NewAccessToken"

	token, err := sign(Claims{
		UID:   user.ID,
		Email: user.Email,
		Role:  user.Role,
	}, c.accessSecret, c.accessTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// NewRefreshToken mints a long-lived {uid, email} token. Its validity is
// additionally gated by the cache entry the auth engine keeps per user.
func (c *Codec) NewRefreshToken(user models.User) (string, error) {
	const op = "jwt.NewRefreshToken"

	token, err := sign(Claims{
		UID:   user.ID,
		Email: user.Email,
	}, c.refreshSecret, c.refreshTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// ParseAccessToken returns ErrInvalidToken on bad signature, malformed
// structure, wrong signing method or expiry. It never panics.
func (c *Codec) ParseAccessToken(tokenStr string) (Claims, error) {
	return parse(tokenStr, c.accessSecret)
}

func (c *Codec) ParseRefreshToken(tokenStr string) (Claims, error) {
	return parse(tokenStr, c.refreshSecret)
}

func sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

func parse(tokenStr string, secret []byte) (Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.UID == "" {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
