package services

import (
	"context"
	"testing"
	"time"

	"forgestudio/internal/authz"
	"forgestudio/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	mockUsers   *MockUserRepository
	mockTenants *MockTenantRepository
	mockMembers *MockMembershipRepository
	mockCache   *MockCacheService
	service     AuthService
	ctx         context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.mockUsers = &MockUserRepository{}
	suite.mockTenants = &MockTenantRepository{}
	suite.mockMembers = &MockMembershipRepository{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewAuthService(suite.mockUsers, suite.mockTenants, suite.mockMembers,
		NewTokenService(testSecret), suite.mockCache)
	suite.ctx = context.Background()

	suite.mockUsers.Test(suite.T())
	suite.mockTenants.Test(suite.T())
	suite.mockMembers.Test(suite.T())
	suite.mockCache.Test(suite.T())
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.mockUsers.AssertExpectations(suite.T())
	suite.mockTenants.AssertExpectations(suite.T())
	suite.mockMembers.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func hashedUser(email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Dev",
		PasswordHash: string(hash),
	}
}

func (suite *AuthServiceTestSuite) TestRegister_Success() {
	suite.mockUsers.On("GetByEmail", suite.ctx, "new@example.com").Return(nil, pgx.ErrNoRows)
	suite.mockTenants.On("GetBySlug", suite.ctx, "acme-corp").Return(nil, pgx.ErrNoRows)
	suite.mockTenants.On("Register", suite.ctx,
		mock.AnythingOfType("*models.User"),
		mock.AnythingOfType("*models.Tenant"),
		mock.AnythingOfType("*models.TenantMember"),
		mock.AnythingOfType("*models.TenantQuota"),
	).Return(nil)

	result, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Email:      "new@example.com",
		Password:   "correct horse battery",
		Name:       "Dev",
		TenantName: "Acme Corp",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), string(authz.RoleAdmin), result.Role)
	assert.NotEmpty(suite.T(), result.Tokens.AccessToken)
	require.NotNil(suite.T(), result.User.CurrentTenantID)
	assert.Equal(suite.T(), result.TenantID, *result.User.CurrentTenantID)

	// The stored hash must verify against the original password.
	assert.NoError(suite.T(), bcrypt.CompareHashAndPassword(
		[]byte(result.User.PasswordHash), []byte("correct horse battery")))
}

func (suite *AuthServiceTestSuite) TestRegister_NameDefaultsFromEmail() {
	suite.mockUsers.On("GetByEmail", suite.ctx, "dana@example.com").Return(nil, pgx.ErrNoRows)
	suite.mockTenants.On("GetBySlug", suite.ctx, "acme").Return(nil, pgx.ErrNoRows)
	suite.mockTenants.On("Register", suite.ctx,
		mock.AnythingOfType("*models.User"),
		mock.AnythingOfType("*models.Tenant"),
		mock.AnythingOfType("*models.TenantMember"),
		mock.AnythingOfType("*models.TenantQuota"),
	).Return(nil)

	result, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Email:      "dana@example.com",
		Password:   "some-password",
		TenantName: "Acme",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "dana", result.User.Name)
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateEmail() {
	existing := hashedUser("taken@example.com", "pw")
	suite.mockUsers.On("GetByEmail", suite.ctx, "taken@example.com").Return(existing, nil)

	_, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Email:      "taken@example.com",
		Password:   "whatever",
		TenantName: "Acme",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateSlug() {
	suite.mockUsers.On("GetByEmail", suite.ctx, "new@example.com").Return(nil, pgx.ErrNoRows)
	suite.mockTenants.On("GetBySlug", suite.ctx, "acme").Return(activeTenant("acme"), nil)

	_, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Email:      "new@example.com",
		Password:   "whatever",
		TenantName: "Acme",
	})
	assert.ErrorIs(suite.T(), err, ErrTenantExists)
}

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	user := hashedUser("dev@example.com", "secret-password")
	tenantID := uuid.New()
	member := &models.TenantMember{
		TenantID: tenantID,
		UserID:   user.ID,
		Role:     string(authz.RoleMember),
		Status:   models.MemberStatusActive,
	}

	suite.mockUsers.On("GetByEmail", suite.ctx, "dev@example.com").Return(user, nil)
	suite.mockMembers.On("ListActiveByUser", suite.ctx, user.ID).Return([]*models.TenantMember{member}, nil)
	suite.mockUsers.On("UpdateCurrentTenant", suite.ctx, user.ID, tenantID).Return(nil)

	result, err := suite.service.Login(suite.ctx, &LoginRequest{
		Email:    "dev@example.com",
		Password: "secret-password",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenantID, result.TenantID)
	assert.Equal(suite.T(), string(authz.RoleMember), result.Role)
	assert.NotEmpty(suite.T(), result.Tokens.RefreshToken)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	user := hashedUser("dev@example.com", "right-password")
	suite.mockUsers.On("GetByEmail", suite.ctx, "dev@example.com").Return(user, nil)

	_, err := suite.service.Login(suite.ctx, &LoginRequest{
		Email:    "dev@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLogin_UnknownEmail() {
	suite.mockUsers.On("GetByEmail", suite.ctx, "ghost@example.com").Return(nil, pgx.ErrNoRows)

	_, err := suite.service.Login(suite.ctx, &LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLogin_CurrentTenantPreferred() {
	user := hashedUser("dev@example.com", "pw")
	tenantA := uuid.New()
	tenantB := uuid.New()
	user.CurrentTenantID = &tenantB

	members := []*models.TenantMember{
		{TenantID: tenantA, UserID: user.ID, Role: string(authz.RoleViewer)},
		{TenantID: tenantB, UserID: user.ID, Role: string(authz.RoleAdmin)},
	}

	suite.mockUsers.On("GetByEmail", suite.ctx, "dev@example.com").Return(user, nil)
	suite.mockMembers.On("ListActiveByUser", suite.ctx, user.ID).Return(members, nil)

	result, err := suite.service.Login(suite.ctx, &LoginRequest{Email: "dev@example.com", Password: "pw"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenantB, result.TenantID)
	assert.Equal(suite.T(), string(authz.RoleAdmin), result.Role)
	// Current tenant unchanged, so no write.
	suite.mockUsers.AssertNotCalled(suite.T(), "UpdateCurrentTenant", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestLogin_RequestedSlugNotAMember() {
	user := hashedUser("dev@example.com", "pw")
	tenant := activeTenant("acme")
	members := []*models.TenantMember{
		{TenantID: tenant.ID, UserID: user.ID, Role: string(authz.RoleMember)},
	}

	suite.mockUsers.On("GetByEmail", suite.ctx, "dev@example.com").Return(user, nil)
	suite.mockMembers.On("ListActiveByUser", suite.ctx, user.ID).Return(members, nil)
	suite.mockTenants.On("GetByID", mock.Anything, tenant.ID).Return(tenant, nil)

	_, err := suite.service.Login(suite.ctx, &LoginRequest{
		Email:      "dev@example.com",
		Password:   "pw",
		TenantSlug: "other-tenant",
	})
	assert.ErrorIs(suite.T(), err, ErrTenantAccessDenied)
}

func (suite *AuthServiceTestSuite) TestLogin_SlugLookupCarriesCallerContext() {
	// The tenant lookup behind a slug-qualified login must run on the request
	// context, not a detached one.
	type ctxKey string
	ctx := context.WithValue(context.Background(), ctxKey("request-id"), "r-42")

	user := hashedUser("dev@example.com", "pw")
	tenant := activeTenant("acme")
	members := []*models.TenantMember{
		{TenantID: tenant.ID, UserID: user.ID, Role: string(authz.RoleMember)},
	}

	suite.mockUsers.On("GetByEmail", ctx, "dev@example.com").Return(user, nil)
	suite.mockMembers.On("ListActiveByUser", ctx, user.ID).Return(members, nil)
	suite.mockTenants.On("GetByID", ctx, tenant.ID).Return(tenant, nil)
	suite.mockUsers.On("UpdateCurrentTenant", ctx, user.ID, tenant.ID).Return(nil)

	result, err := suite.service.Login(ctx, &LoginRequest{
		Email:      "dev@example.com",
		Password:   "pw",
		TenantSlug: "acme",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, result.TenantID)
}

func (suite *AuthServiceTestSuite) TestLogin_NoMemberships() {
	user := hashedUser("dev@example.com", "pw")
	suite.mockUsers.On("GetByEmail", suite.ctx, "dev@example.com").Return(user, nil)
	suite.mockMembers.On("ListActiveByUser", suite.ctx, user.ID).Return([]*models.TenantMember{}, nil)

	_, err := suite.service.Login(suite.ctx, &LoginRequest{Email: "dev@example.com", Password: "pw"})
	assert.ErrorIs(suite.T(), err, ErrNoTenantAccess)
}

func (suite *AuthServiceTestSuite) TestSwitchTenant_NotAMember() {
	userID := uuid.New()
	tenantID := uuid.New()
	suite.mockMembers.On("GetActive", suite.ctx, tenantID, userID).Return(nil, pgx.ErrNoRows)

	_, err := suite.service.SwitchTenant(suite.ctx, userID, tenantID)
	assert.ErrorIs(suite.T(), err, ErrTenantAccessDenied)
}

func (suite *AuthServiceTestSuite) TestSwitchTenant_InactiveTenant() {
	userID := uuid.New()
	tenant := activeTenant("acme")
	tenant.Status = models.TenantStatusSuspended
	member := &models.TenantMember{TenantID: tenant.ID, UserID: userID, Role: string(authz.RoleMember)}

	suite.mockMembers.On("GetActive", suite.ctx, tenant.ID, userID).Return(member, nil)
	suite.mockTenants.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)

	_, err := suite.service.SwitchTenant(suite.ctx, userID, tenant.ID)
	assert.ErrorIs(suite.T(), err, ErrTenantInactive)
}

func (suite *AuthServiceTestSuite) TestSwitchTenant_Success() {
	user := hashedUser("dev@example.com", "pw")
	tenant := activeTenant("acme")
	member := &models.TenantMember{TenantID: tenant.ID, UserID: user.ID, Role: string(authz.RoleManager)}

	suite.mockMembers.On("GetActive", suite.ctx, tenant.ID, user.ID).Return(member, nil)
	suite.mockTenants.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.mockUsers.On("GetByID", suite.ctx, user.ID).Return(user, nil)
	suite.mockUsers.On("UpdateCurrentTenant", suite.ctx, user.ID, tenant.ID).Return(nil)

	result, err := suite.service.SwitchTenant(suite.ctx, user.ID, tenant.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, result.TenantID)
	assert.Equal(suite.T(), string(authz.RoleManager), result.Role)

	// The minted access token must carry the new tenant and role.
	claims, err := NewTokenService(testSecret).VerifyAccess(result.Tokens.AccessToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID.String(), claims.TenantID)
	assert.Equal(suite.T(), string(authz.RoleManager), claims.Role)
}

func (suite *AuthServiceTestSuite) TestRefresh_RoundTrip() {
	user := hashedUser("dev@example.com", "pw")
	tenantID := uuid.New()
	user.CurrentTenantID = &tenantID
	member := &models.TenantMember{TenantID: tenantID, UserID: user.ID, Role: string(authz.RoleMember)}

	pair, err := NewTokenService(testSecret).GenerateTokenPair(user, tenantID, string(authz.RoleMember))
	require.NoError(suite.T(), err)

	suite.mockUsers.On("GetByID", suite.ctx, user.ID).Return(user, nil)
	suite.mockMembers.On("GetActive", suite.ctx, tenantID, user.ID).Return(member, nil)

	result, err := suite.service.Refresh(suite.ctx, pair.RefreshToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenantID, result.TenantID)
	assert.NotEmpty(suite.T(), result.Tokens.AccessToken)
}

func (suite *AuthServiceTestSuite) TestRefresh_AccessTokenRejected() {
	user := hashedUser("dev@example.com", "pw")
	pair, err := NewTokenService(testSecret).GenerateTokenPair(user, uuid.New(), string(authz.RoleMember))
	require.NoError(suite.T(), err)

	_, err = suite.service.Refresh(suite.ctx, pair.AccessToken)
	assert.ErrorIs(suite.T(), err, ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestLogout_BlacklistsUntilExpiry() {
	claims := &AccessClaims{
		UserID: uuid.NewString(),
	}
	claims.ID = uuid.NewString()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(30 * time.Minute))

	suite.mockCache.On("BlacklistToken", suite.ctx, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 25*time.Minute && ttl <= 30*time.Minute
	})).Return(nil)

	err := suite.service.Logout(suite.ctx, claims)
	require.NoError(suite.T(), err)
}
