package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forgestudio/internal/authz"
	"forgestudio/internal/caching"
	"forgestudio/internal/common"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrTenantExists       = errors.New("tenant slug already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoTenantAccess     = errors.New("user has no accessible tenant")
	ErrTenantAccessDenied = errors.New("user is not a member of the tenant")
	ErrTenantInactive     = errors.New("tenant is not active")
)

type RegisterRequest struct {
	Email      string
	Password   string
	Name       string
	TenantName string
}

type LoginRequest struct {
	Email      string
	Password   string
	TenantSlug string
}

// AuthResult bundles the authenticated user with the minted token pair.
type AuthResult struct {
	User     *models.User
	TenantID uuid.UUID
	Role     string
	Tokens   *TokenPair
}

// AuthService implements registration, login, token refresh, tenant
// switching and logout.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	SwitchTenant(ctx context.Context, userID, tenantID uuid.UUID) (*AuthResult, error)
	Logout(ctx context.Context, claims *AccessClaims) error
}

type authService struct {
	userRepo       repositories.UserRepository
	tenantRepo     repositories.TenantRepository
	membershipRepo repositories.MembershipRepository
	tokenSvc       TokenService
	cacheSvc       caching.CacheService
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tenantRepo repositories.TenantRepository,
	membershipRepo repositories.MembershipRepository,
	tokenSvc TokenService,
	cacheSvc caching.CacheService,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		tokenSvc:       tokenSvc,
		cacheSvc:       cacheSvc,
	}
}

// Register creates the user, their tenant, the ADMIN membership and the
// default quota in one transaction, then issues the first token pair.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}

	tenantName := req.TenantName
	slug := common.Slugify(tenantName)
	if slug == "" {
		slug = fmt.Sprintf("tenant-%d", time.Now().UnixMilli())
		tenantName = name + "'s workspace"
	}

	if _, err := s.tenantRepo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrTenantExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         name,
		PasswordHash: string(passwordHash),
	}
	tenant := &models.Tenant{
		ID:      uuid.New(),
		Name:    tenantName,
		Slug:    slug,
		Plan:    models.TenantPlanFree,
		Status:  models.TenantStatusActive,
		AdminID: user.ID,
	}
	member := &models.TenantMember{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		UserID:   user.ID,
		Role:     string(authz.RoleAdmin),
		Status:   models.MemberStatusActive,
	}
	quota := &models.TenantQuota{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		MaxProjects:     models.DefaultMaxProjects,
		MaxUsers:        models.DefaultMaxUsers,
		MaxRequirements: models.DefaultMaxRequirements,
		MaxAIRequests:   models.DefaultMaxAIRequests,
		MaxStorage:      models.DefaultMaxStorage,
	}

	if err := s.tenantRepo.Register(ctx, user, tenant, member, quota); err != nil {
		return nil, err
	}
	user.CurrentTenantID = &tenant.ID

	tokens, err := s.tokenSvc.GenerateTokenPair(user, tenant.ID, member.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TenantID: tenant.ID, Role: member.Role, Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	memberships, err := s.membershipRepo.ListActiveByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	target := s.pickTenant(ctx, memberships, user, req.TenantSlug)
	if target == nil {
		if req.TenantSlug != "" {
			return nil, ErrTenantAccessDenied
		}
		return nil, ErrNoTenantAccess
	}

	if user.CurrentTenantID == nil || *user.CurrentTenantID != target.TenantID {
		if err := s.userRepo.UpdateCurrentTenant(ctx, user.ID, target.TenantID); err != nil {
			return nil, err
		}
		user.CurrentTenantID = &target.TenantID
	}

	tokens, err := s.tokenSvc.GenerateTokenPair(user, target.TenantID, target.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TenantID: target.TenantID, Role: target.Role, Tokens: tokens}, nil
}

// pickTenant selects the login tenant: the requested slug if the user is a
// member there, else the user's current tenant, else the oldest membership.
func (s *authService) pickTenant(ctx context.Context, memberships []*models.TenantMember, user *models.User, slug string) *models.TenantMember {
	if slug != "" {
		for _, m := range memberships {
			tenant, err := s.tenantRepo.GetByID(ctx, m.TenantID)
			if err == nil && tenant.Slug == slug {
				return m
			}
		}
		return nil
	}

	if user.CurrentTenantID != nil {
		for _, m := range memberships {
			if m.TenantID == *user.CurrentTenantID {
				return m
			}
		}
	}

	if len(memberships) > 0 {
		return memberships[0]
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new pair. The tenant and role
// are re-derived from the user's current membership, so a role change takes
// effect at the next refresh.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokenSvc.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	if user.CurrentTenantID == nil {
		return nil, ErrNoTenantAccess
	}

	member, err := s.membershipRepo.GetActive(ctx, *user.CurrentTenantID, user.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTenantAccess
	}
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokenSvc.GenerateTokenPair(user, member.TenantID, member.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TenantID: member.TenantID, Role: member.Role, Tokens: tokens}, nil
}

func (s *authService) SwitchTenant(ctx context.Context, userID, tenantID uuid.UUID) (*AuthResult, error) {
	member, err := s.membershipRepo.GetActive(ctx, tenantID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantAccessDenied
	}
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, ErrTenantInactive
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateCurrentTenant(ctx, userID, tenantID); err != nil {
		return nil, err
	}
	user.CurrentTenantID = &tenantID

	tokens, err := s.tokenSvc.GenerateTokenPair(user, tenantID, member.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TenantID: tenantID, Role: member.Role, Tokens: tokens}, nil
}

// Logout blacklists the current access token until its natural expiry.
func (s *authService) Logout(ctx context.Context, claims *AccessClaims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.cacheSvc.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
