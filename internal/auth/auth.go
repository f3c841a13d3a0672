// Package auth is the authentication engine: login, token refresh, logout,
// email verification and verification resend. The redis cache is authoritative
// for whether a refresh or verification token is still outstanding; a token
// that verifies cryptographically but has no matching cache entry is rejected.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtg-lucifer/sahotsava-be/internal/lib/jwt"
	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/lib/verification"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

var (
	// ErrInvalidCredentials covers unknown email, unverified account and
	// wrong password alike, so the login surface cannot be used to
	// enumerate users or confirm unverified accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers expired, forged, consumed and superseded
	// tokens on the refresh and verify paths.
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyVerified is a short-circuit outcome of ResendVerification,
	// not a failure: no new token is issued and nothing is mutated.
	ErrAlreadyVerified = errors.New("email already verified")
)

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
}

type UserVerifier interface {
	UpdateVerification(ctx context.Context, id string, verified bool, token *string) (models.User, error)
}

// TokenCache is the TTL key-value store backing sessions and pending
// verifications. Get returns storage.ErrCacheMiss on an absent key;
// Delete is idempotent.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Auth struct {
	log             *slog.Logger
	usrProvider     UserProvider
	usrVerifier     UserVerifier
	cache           TokenCache
	codec           *jwt.Codec
	verificationTTL time.Duration
}

func New(
	log *slog.Logger,
	userProvider UserProvider,
	userVerifier UserVerifier,
	cache TokenCache,
	codec *jwt.Codec,
	verificationTTL time.Duration,
) *Auth {
	return &Auth{
		log:             log,
		usrProvider:     userProvider,
		usrVerifier:     userVerifier,
		cache:           cache,
		codec:           codec,
		verificationTTL: verificationTTL,
	}
}

// Login checks credentials and mints an access/refresh token pair. The
// refresh token overwrites refresh:{userId} in the cache, so a second login
// for the same user invalidates the previous session (single active session).
func (a *Auth) Login(ctx context.Context, email, password string) (models.User, string, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("login attempt for unknown email")
			return models.User{}, "", "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsVerified {
		log.Info("login attempt for unverified account", slog.String("uid", user.ID))
		return models.User{}, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid password", slog.String("uid", user.ID))
		return models.User{}, "", "", ErrInvalidCredentials
	}

	accessToken, err := a.codec.NewAccessToken(user)
	if err != nil {
		log.Error("failed to sign access token", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := a.codec.NewRefreshToken(user)
	if err != nil {
		log.Error("failed to sign refresh token", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	err = a.cache.Set(ctx, storage.RefreshKey(user.ID), refreshToken, a.codec.RefreshTTL())
	if err != nil {
		log.Error("failed to store refresh token", sl.Err(err))
		return models.User{}, "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("uid", user.ID))

	return user, accessToken, refreshToken, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// The presented token must verify cryptographically, byte-equal the cached
// value for its user, and that user must still exist and be verified. The
// refresh token itself is not rotated.
func (a *Auth) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	const op = "auth.RefreshAccessToken"

	log := a.log.With(slog.String("op", op))

	claims, err := a.codec.ParseRefreshToken(refreshToken)
	if err != nil {
		log.Info("refresh token failed verification")
		return "", ErrInvalidToken
	}

	cached, err := a.cache.Get(ctx, storage.RefreshKey(claims.UID))
	if err != nil {
		if errors.Is(err, storage.ErrCacheMiss) {
			log.Info("no active session", slog.String("uid", claims.UID))
			return "", ErrInvalidToken
		}

		log.Error("failed to read session cache", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Logged out, superseded by a newer login, or evicted.
	if cached != refreshToken {
		log.Info("refresh token superseded", slog.String("uid", claims.UID))
		return "", ErrInvalidToken
	}

	user, err := a.usrProvider.UserByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrInvalidToken
		}

		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsVerified {
		return "", ErrInvalidToken
	}

	accessToken, err := a.codec.NewAccessToken(user)
	if err != nil {
		log.Error("failed to sign access token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("access token refreshed", slog.String("uid", user.ID))

	return accessToken, nil
}

// Logout drops the user's session unconditionally. Deleting an absent key is
// fine, so logging out twice succeeds. The caller's identity comes from an
// already-verified access token at the HTTP boundary.
func (a *Auth) Logout(ctx context.Context, userID string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if err := a.cache.Delete(ctx, storage.RefreshKey(userID)); err != nil {
		log.Error("failed to delete session", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out", slog.String("uid", userID))

	return nil
}

// VerifyEmail consumes a verification token. The cache entry is deleted after
// the durable flag is set, which makes the token single-use: a second call
// with the same token fails the cache lookup.
func (a *Auth) VerifyEmail(ctx context.Context, token string) (models.User, error) {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	userID, err := a.cache.Get(ctx, storage.VerificationKey(token))
	if err != nil {
		if errors.Is(err, storage.ErrCacheMiss) {
			// Never issued, consumed, or expired: equally unrecoverable.
			log.Info("verification token not outstanding")
			return models.User{}, ErrInvalidToken
		}

		log.Error("failed to read verification cache", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrVerifier.UpdateVerification(ctx, userID, true, nil)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrInvalidToken
		}

		log.Error("failed to mark user verified", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	// Best-effort cleanup; the TTL would expire the entry anyway.
	if err := a.cache.Delete(ctx, storage.VerificationKey(token)); err != nil {
		log.Warn("failed to delete consumed verification token", sl.Err(err))
	}

	log.Info("email verified", slog.String("uid", user.ID))

	return user, nil
}

// ResendVerification issues a fresh verification token for an unverified
// user. Unlike the login path this endpoint may reveal that an email is
// unknown or already verified: it is not a credential-guessing surface and
// admins operate on real addresses.
func (a *Auth) ResendVerification(ctx context.Context, email string) (string, error) {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if user.IsVerified {
		return "", ErrAlreadyVerified
	}

	token, err := verification.NewToken()
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// Drop the previous outstanding token so the old link dies with the
	// resend instead of lingering until its own TTL.
	if user.VerificationToken != nil {
		if err := a.cache.Delete(ctx, storage.VerificationKey(*user.VerificationToken)); err != nil {
			log.Warn("failed to delete previous verification token", sl.Err(err))
		}
	}

	if _, err := a.usrVerifier.UpdateVerification(ctx, user.ID, false, &token); err != nil {
		log.Error("failed to persist verification token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	err = a.cache.Set(ctx, storage.VerificationKey(token), user.ID, a.verificationTTL)
	if err != nil {
		log.Error("failed to store verification token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("verification token issued", slog.String("uid", user.ID))

	return token, nil
}
