package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"forgestudio/internal/caching"
	"forgestudio/internal/models"
	"forgestudio/internal/repositories"

	"github.com/google/uuid"
)

// TenantIDHeader carries an explicit tenant id; it wins over subdomain and path.
const TenantIDHeader = "x-tenant-id"

const tenantCacheTTL = 5 * time.Minute

// ErrTenantNotFound is returned when no request signal matches an ACTIVE
// tenant. Suspended and inactive tenants are indistinguishable from
// nonexistent ones here; membership-gated routes surface the difference later.
var ErrTenantNotFound = errors.New("tenant not found")

// Subdomains that never name a tenant.
var reservedSubdomains = map[string]bool{
	"www":       true,
	"api":       true,
	"admin":     true,
	"app":       true,
	"localhost": true,
}

// TenantResolver determines which tenant a request targets: explicit header,
// then host subdomain, then /tenant/{slug} path prefix. First match wins.
type TenantResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*models.Tenant, error)
}

type tenantResolver struct {
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
}

func NewTenantResolver(tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService) TenantResolver {
	return &tenantResolver{tenantRepo: tenantRepo, cacheSvc: cacheSvc}
}

func (s *tenantResolver) Resolve(ctx context.Context, r *http.Request) (*models.Tenant, error) {
	// 1. Explicit tenant-id header
	if headerID := r.Header.Get(TenantIDHeader); headerID != "" {
		if tenantID, err := uuid.Parse(headerID); err == nil {
			if tenant := s.lookupByID(ctx, tenantID); tenant != nil {
				return tenant, nil
			}
		}
	}

	// 2. Host subdomain
	host := r.Host
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if subdomain, _, ok := strings.Cut(host, "."); ok && !reservedSubdomains[subdomain] {
		if tenant := s.lookupBySlug(ctx, subdomain); tenant != nil {
			return tenant, nil
		}
	}

	// 3. Path prefix /tenant/{slug}/...
	segments := strings.FieldsFunc(r.URL.Path, func(r rune) bool { return r == '/' })
	if len(segments) >= 2 && segments[0] == "tenant" {
		if tenant := s.lookupBySlug(ctx, segments[1]); tenant != nil {
			return tenant, nil
		}
	}

	return nil, ErrTenantNotFound
}

func (s *tenantResolver) lookupByID(ctx context.Context, id uuid.UUID) *models.Tenant {
	if tenant, err := s.cacheSvc.GetTenantByID(ctx, id); err == nil {
		return activeOnly(tenant)
	}
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return s.cacheAndFilter(ctx, tenant)
}

func (s *tenantResolver) lookupBySlug(ctx context.Context, slug string) *models.Tenant {
	if tenant, err := s.cacheSvc.GetTenantBySlug(ctx, slug); err == nil {
		return activeOnly(tenant)
	}
	tenant, err := s.tenantRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil
	}
	return s.cacheAndFilter(ctx, tenant)
}

func (s *tenantResolver) cacheAndFilter(ctx context.Context, tenant *models.Tenant) *models.Tenant {
	active := activeOnly(tenant)
	if active != nil {
		// Only ACTIVE tenants are cached; a suspended tenant must stop
		// resolving as soon as its status flips.
		_ = s.cacheSvc.SetTenant(ctx, active, tenantCacheTTL)
	}
	return active
}

func activeOnly(tenant *models.Tenant) *models.Tenant {
	if tenant == nil || tenant.Status != models.TenantStatusActive {
		return nil
	}
	return tenant
}
