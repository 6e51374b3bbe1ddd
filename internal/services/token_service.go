package services

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"forgestudio/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour

	// AuthCookieName is the fallback token source after the Authorization header.
	AuthCookieName = "auth-token"

	refreshTokenType = "refresh"
)

var (
	// ErrTokenInvalid covers every parse, signature and expiry failure.
	// Callers get no finer distinction than "unauthorized".
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSecretMissing means the signing secret is not configured. This is a
	// server fault (500), never an authentication failure (401).
	ErrSecretMissing = errors.New("token signing secret not configured")
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	TenantID string `json:"tenantId,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token. It deliberately
// carries no tenant or role; those are re-derived at refresh time.
type RefreshClaims struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what login, register, refresh and switch-tenant hand back.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type TokenService interface {
	GenerateTokenPair(user *models.User, tenantID uuid.UUID, role string) (*TokenPair, error)
	VerifyAccess(token string) (*AccessClaims, error)
	VerifyRefresh(token string) (*RefreshClaims, error)
}

type tokenService struct {
	secret []byte
}

// NewTokenService creates a token service over the process-wide signing
// secret. An empty secret is tolerated at construction so the server can
// start and report SERVER_ERROR per request instead of crashing.
func NewTokenService(secret string) TokenService {
	return &tokenService{secret: []byte(secret)}
}

func (s *tokenService) GenerateTokenPair(user *models.User, tenantID uuid.UUID, role string) (*TokenPair, error) {
	if len(s.secret) == 0 {
		return nil, ErrSecretMissing
	}

	now := time.Now()

	accessClaims := AccessClaims{
		UserID:   user.ID.String(),
		Email:    user.Email,
		TenantID: tenantID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	refreshClaims := RefreshClaims{
		UserID: user.ID.String(),
		Type:   refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(AccessTokenTTL.Seconds()),
	}, nil
}

func (s *tokenService) VerifyAccess(token string) (*AccessClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrSecretMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	// A refresh token presented as an access token must not pass.
	if claims.UserID == "" || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *tokenService) VerifyRefresh(token string) (*RefreshClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrSecretMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &RefreshClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*RefreshClaims)
	if !ok || !parsed.Valid || claims.Type != refreshTokenType || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ExtractToken pulls the credential from a request: Authorization bearer
// scheme first, else the auth cookie. No other source is honored.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); authHeader != "" && token != authHeader {
		return token
	}

	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
