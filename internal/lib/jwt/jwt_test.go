package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtg-lucifer/sahotsava-be/internal/models"
)

func newTestCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()

	codec, err := NewCodec("access-secret", "refresh-secret", accessTTL, refreshTTL)
	require.NoError(t, err)

	return codec
}

func testUser() models.User {
	return models.User{
		ID:    "u-1",
		Email: "lead@fest.example",
		Role:  models.RoleDomainLead,
	}
}

func TestNewCodec_RejectsSharedSecret(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("same", "same", time.Hour, time.Hour)
	require.Error(t, err)
}

func TestNewCodec_RejectsEmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("", "refresh", time.Hour, time.Hour)
	require.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour, 24*time.Hour)

	token, err := codec.NewAccessToken(testUser())
	require.NoError(t, err)

	claims, err := codec.ParseAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.UID)
	assert.Equal(t, "lead@fest.example", claims.Email)
	assert.Equal(t, models.RoleDomainLead, claims.Role)
}

func TestRefreshToken_CarriesNoRole(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour, 24*time.Hour)

	token, err := codec.NewRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := codec.ParseRefreshToken(token)
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.UID)
	assert.Empty(t, claims.Role)
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour, 24*time.Hour)

	token, err := sign(Claims{UID: "u-1"}, []byte("access-secret"), -time.Minute)
	require.NoError(t, err)

	_, err = codec.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Malformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour, 24*time.Hour)

	_, err := codec.ParseAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// A refresh token must never pass access-token verification: the two classes
// are signed with distinct secrets.
func TestTokenClasses_AreNotInterchangeable(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour, 24*time.Hour)

	refreshToken, err := codec.NewRefreshToken(testUser())
	require.NoError(t, err)

	_, err = codec.ParseAccessToken(refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	accessToken, err := codec.NewAccessToken(testUser())
	require.NoError(t, err)

	_, err = codec.ParseRefreshToken(accessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Hour, 24*time.Hour)
	other, err := NewCodec("other-access", "other-refresh", time.Hour, time.Hour)
	require.NoError(t, err)

	token, err := codec.NewAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
