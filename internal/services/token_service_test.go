package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forgestudio/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func testUser() *models.User {
	return &models.User{
		ID:    uuid.New(),
		Email: "dev@example.com",
		Name:  "Dev",
	}
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret)
	user := testUser()
	tenantID := uuid.New()

	pair, err := svc.GenerateTokenPair(user, tenantID, "MEMBER")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(AccessTokenTTL.Seconds()), pair.ExpiresIn)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, "MEMBER", claims.Role)
	assert.NotEmpty(t, claims.ID, "access token must carry a jti")

	refresh, err := svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), refresh.UserID)
	assert.Equal(t, "refresh", refresh.Type)
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	pair, err := NewTokenService(testSecret).GenerateTokenPair(testUser(), uuid.New(), "ADMIN")
	require.NoError(t, err)

	_, err = NewTokenService("a-different-secret").VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_Expired(t *testing.T) {
	now := time.Now().Add(-2 * time.Hour)
	claims := AccessClaims{
		UserID: uuid.NewString(),
		Email:  "dev@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenService(testSecret).VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_Garbage(t *testing.T) {
	svc := NewTokenService(testSecret)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestVerifyAccess_RejectsUnsignedAlg(t *testing.T) {
	claims := AccessClaims{UserID: uuid.NewString(), Email: "dev@example.com"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret).VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyAccess_RefreshTokenRejected(t *testing.T) {
	// A refresh token presented on the access path carries no email claim and
	// must be rejected even though the signature is valid.
	svc := NewTokenService(testSecret)
	pair, err := svc.GenerateTokenPair(testUser(), uuid.New(), "MEMBER")
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRefresh_AccessTokenRejected(t *testing.T) {
	svc := NewTokenService(testSecret)
	pair, err := svc.GenerateTokenPair(testUser(), uuid.New(), "MEMBER")
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMissingSecret(t *testing.T) {
	svc := NewTokenService("")

	_, err := svc.GenerateTokenPair(testUser(), uuid.New(), "ADMIN")
	assert.ErrorIs(t, err, ErrSecretMissing)

	_, err = svc.VerifyAccess("whatever")
	assert.ErrorIs(t, err, ErrSecretMissing)

	_, err = svc.VerifyRefresh("whatever")
	assert.ErrorIs(t, err, ErrSecretMissing)
}

func TestExtractToken(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc123")
		assert.Equal(t, "abc123", ExtractToken(r))
	})

	t.Run("cookie fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
		assert.Equal(t, "cookie-token", ExtractToken(r))
	})

	t.Run("malformed header falls through to cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
		assert.Equal(t, "cookie-token", ExtractToken(r))
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer header-token")
		r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
		assert.Equal(t, "header-token", ExtractToken(r))
	})

	t.Run("nothing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, "", ExtractToken(r))
	})
}
