package services

import (
	"context"
	"errors"

	"forgestudio/internal/models"
	"forgestudio/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MembershipService answers "is this user an active member of this tenant"
// and related role lookups. Side-effect free.
type MembershipService interface {
	Validate(ctx context.Context, userID, tenantID uuid.UUID) (bool, error)
	RoleFor(ctx context.Context, userID, tenantID uuid.UUID) (string, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.TenantMember, error)
}

// ErrNotAMember is returned by RoleFor when no active membership exists.
var ErrNotAMember = errors.New("user is not an active member of tenant")

type membershipService struct {
	membershipRepo repositories.MembershipRepository
}

func NewMembershipService(membershipRepo repositories.MembershipRepository) MembershipService {
	return &membershipService{membershipRepo: membershipRepo}
}

func (s *membershipService) Validate(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	_, err := s.membershipRepo.GetActive(ctx, tenantID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *membershipService) RoleFor(ctx context.Context, userID, tenantID uuid.UUID) (string, error) {
	member, err := s.membershipRepo.GetActive(ctx, tenantID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotAMember
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (s *membershipService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.TenantMember, error) {
	return s.membershipRepo.ListActiveByUser(ctx, userID)
}
