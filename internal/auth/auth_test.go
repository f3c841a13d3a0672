package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtg-lucifer/sahotsava-be/internal/lib/jwt"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
	redisstore "github.com/dtg-lucifer/sahotsava-be/internal/storage/redis"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

func (s *fakeUserStore) UserByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func (s *fakeUserStore) UpdateVerification(_ context.Context, id string, verified bool, token *string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	u.IsVerified = verified
	u.VerificationToken = token
	s.users[id] = u

	return u, nil
}

func (s *fakeUserStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
}

const testPassword = "correct-horse-battery"

func hashPassword(t *testing.T) []byte {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return hash
}

func verifiedUser(t *testing.T, id, email string) models.User {
	return models.User{
		ID:         id,
		Email:      email,
		Name:       "Crew Member",
		Role:       models.RoleCheckinCrew,
		PassHash:   hashPassword(t),
		IsVerified: true,
	}
}

func ambassadorUser(t *testing.T, id, email string) models.User {
	return models.User{
		ID:         id,
		Email:      email,
		Name:       "Campus Ambassador",
		Role:       models.RoleCampusAmbassador,
		PassHash:   hashPassword(t),
		IsVerified: false,
	}
}

func newTestAuth(t *testing.T, store *fakeUserStore) (*Auth, *miniredis.Miniredis, *redisstore.TokenCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache := redisstore.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	codec, err := jwt.NewCodec("access-secret", "refresh-secret", 24*time.Hour, 720*time.Hour)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(log, store, store, cache, codec, 24*time.Hour), mr, cache
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t, newFakeUserStore())

	_, _, _, err := a.Login(context.Background(), "ghost@fest.example", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-1", "crew@fest.example"))
	a, _, _ := newTestAuth(t, store)

	_, _, _, err := a.Login(context.Background(), "crew@fest.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// An unverified account is rejected with the same generic reason even when
// the password is correct, so the login surface cannot confirm the account
// exists.
func TestLogin_UnverifiedRejectedRegardlessOfPassword(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(ambassadorUser(t, "u-1", "amb@fest.example"))
	a, _, _ := newTestAuth(t, store)

	_, _, _, err := a.Login(context.Background(), "amb@fest.example", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = a.Login(context.Background(), "amb@fest.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-1", "crew@fest.example"))
	a, _, cache := newTestAuth(t, store)
	ctx := context.Background()

	user, accessToken, refreshToken, err := a.Login(ctx, "crew@fest.example", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)

	// The cache entry must byte-equal the returned refresh token.
	cached, err := cache.Get(ctx, storage.RefreshKey("u-1"))
	require.NoError(t, err)
	assert.Equal(t, refreshToken, cached)
}

func TestLogin_SecondLoginSupersedesFirstSession(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-2", "crew2@fest.example"))
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, _, r1, err := a.Login(ctx, "crew2@fest.example", testPassword)
	require.NoError(t, err)

	// Refresh tokens embed issued-at with second precision; make sure the
	// second login produces a distinct token.
	time.Sleep(1100 * time.Millisecond)

	_, _, r2, err := a.Login(ctx, "crew2@fest.example", testPassword)
	require.NoError(t, err)
	require.NotEqual(t, r1, r2)

	_, err = a.RefreshAccessToken(ctx, r1)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.RefreshAccessToken(ctx, r2)
	assert.NoError(t, err)
}

func TestRefreshAccessToken_Success(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-1", "crew@fest.example"))
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, _, refreshToken, err := a.Login(ctx, "crew@fest.example", testPassword)
	require.NoError(t, err)

	accessToken, err := a.RefreshAccessToken(ctx, refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
}

func TestRefreshAccessToken_Forged(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t, newFakeUserStore())

	_, err := a.RefreshAccessToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// A correctly signed refresh token with no cache entry is dead: the cache is
// the revocation mechanism.
func TestRefreshAccessToken_NoSession(t *testing.T) {
	t.Parallel()

	user := verifiedUser(t, "u-1", "crew@fest.example")
	store := newFakeUserStore(user)
	a, _, cache := newTestAuth(t, store)
	ctx := context.Background()

	_, _, refreshToken, err := a.Login(ctx, "crew@fest.example", testPassword)
	require.NoError(t, err)

	require.NoError(t, cache.Delete(ctx, storage.RefreshKey("u-1")))

	_, err = a.RefreshAccessToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessToken_SessionExpiredByTTL(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-1", "crew@fest.example"))
	a, mr, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, _, refreshToken, err := a.Login(ctx, "crew@fest.example", testPassword)
	require.NoError(t, err)

	mr.FastForward(721 * time.Hour)

	_, err = a.RefreshAccessToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessToken_UserGoneOrUnverified(t *testing.T) {
	t.Parallel()

	user := verifiedUser(t, "u-1", "crew@fest.example")
	store := newFakeUserStore(user)
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, _, refreshToken, err := a.Login(ctx, "crew@fest.example", testPassword)
	require.NoError(t, err)

	// Account de-verified after the original login.
	_, err = store.UpdateVerification(ctx, "u-1", false, nil)
	require.NoError(t, err)

	_, err = a.RefreshAccessToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	store.delete("u-1")

	_, err = a.RefreshAccessToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-1", "crew@fest.example"))
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, _, refreshToken, err := a.Login(ctx, "crew@fest.example", testPassword)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, "u-1"))

	_, err = a.RefreshAccessToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t, newFakeUserStore())
	ctx := context.Background()

	require.NoError(t, a.Logout(ctx, "u-never-logged-in"))
	require.NoError(t, a.Logout(ctx, "u-never-logged-in"))
}

func TestVerifyEmail_SingleUse(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(ambassadorUser(t, "u-1", "amb@fest.example"))
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	token, err := a.ResendVerification(ctx, "amb@fest.example")
	require.NoError(t, err)

	user, err := a.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Nil(t, user.VerificationToken)

	// Second consumption fails while the first call's side effects persist.
	_, err = a.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	stored, err := store.UserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t, newFakeUserStore())

	_, err := a.VerifyEmail(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmail_ExpiredByTTL(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(ambassadorUser(t, "u-1", "amb@fest.example"))
	a, mr, _ := newTestAuth(t, store)
	ctx := context.Background()

	token, err := a.ResendVerification(ctx, "amb@fest.example")
	require.NoError(t, err)

	mr.FastForward(25 * time.Hour)

	_, err = a.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResendVerification_UnknownUser(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t, newFakeUserStore())

	_, err := a.ResendVerification(context.Background(), "ghost@fest.example")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResendVerification_AlreadyVerified(t *testing.T) {
	t.Parallel()

	user := verifiedUser(t, "u-1", "crew@fest.example")
	store := newFakeUserStore(user)
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, err := a.ResendVerification(ctx, "crew@fest.example")
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	// No token fields were touched.
	stored, err := store.UserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationToken)
}

// A resend supersedes the previous token entirely: the new link works, the
// old one is removed from the cache before its own TTL.
func TestResendVerification_SupersedesPreviousToken(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(ambassadorUser(t, "u-1", "amb@fest.example"))
	a, _, cache := newTestAuth(t, store)
	ctx := context.Background()

	t1, err := a.ResendVerification(ctx, "amb@fest.example")
	require.NoError(t, err)

	t2, err := a.ResendVerification(ctx, "amb@fest.example")
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)

	_, err = cache.Get(ctx, storage.VerificationKey(t1))
	assert.ErrorIs(t, err, storage.ErrCacheMiss)

	_, err = a.VerifyEmail(ctx, t1)
	assert.ErrorIs(t, err, ErrInvalidToken)

	user, err := a.VerifyEmail(ctx, t2)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
}

// Full ambassador lifecycle: unverified login rejected, verification flips
// the account, login succeeds, the consumed token stays dead.
func TestAmbassadorLifecycle(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(ambassadorUser(t, "u-1", "amb@fest.example"))
	a, _, _ := newTestAuth(t, store)
	ctx := context.Background()

	_, _, _, err := a.Login(ctx, "amb@fest.example", testPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	t1, err := a.ResendVerification(ctx, "amb@fest.example")
	require.NoError(t, err)

	user, err := a.VerifyEmail(ctx, t1)
	require.NoError(t, err)
	require.True(t, user.IsVerified)

	_, accessToken, refreshToken, err := a.Login(ctx, "amb@fest.example", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)

	_, err = a.VerifyEmail(ctx, t1)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// Cache connectivity failures are infrastructure errors, never folded into
// the generic credential rejection.
func TestLogin_CacheDownIsInfrastructureError(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore(verifiedUser(t, "u-1", "crew@fest.example"))
	a, mr, _ := newTestAuth(t, store)

	mr.Close()

	_, _, _, err := a.Login(context.Background(), "crew@fest.example", testPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
