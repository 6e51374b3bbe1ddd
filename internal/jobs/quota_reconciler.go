package jobs

import (
	"context"
	"log"

	"forgestudio/internal/models"
	"forgestudio/internal/repositories"
)

const reconcilerPageSize = 100

// QuotaReconciler recounts real resource usage per tenant and overwrites the
// quota counters. Reserve/Release keep the counters correct in the common
// case; this job repairs drift from crashed requests or manual data changes.
type QuotaReconciler struct {
	tenantRepo      repositories.TenantRepository
	quotaRepo       repositories.QuotaRepository
	projectRepo     repositories.ProjectRepository
	requirementRepo repositories.RequirementRepository
	membershipRepo  repositories.MembershipRepository
	attachmentRepo  repositories.AttachmentRepository
}

func NewQuotaReconciler(
	tenantRepo repositories.TenantRepository,
	quotaRepo repositories.QuotaRepository,
	projectRepo repositories.ProjectRepository,
	requirementRepo repositories.RequirementRepository,
	membershipRepo repositories.MembershipRepository,
	attachmentRepo repositories.AttachmentRepository,
) *QuotaReconciler {
	return &QuotaReconciler{
		tenantRepo:      tenantRepo,
		quotaRepo:       quotaRepo,
		projectRepo:     projectRepo,
		requirementRepo: requirementRepo,
		membershipRepo:  membershipRepo,
		attachmentRepo:  attachmentRepo,
	}
}

// Run reconciles every tenant. Failures on one tenant do not stop the rest.
func (r *QuotaReconciler) Run(ctx context.Context) {
	offset := 0
	reconciled := 0
	for {
		tenants, err := r.tenantRepo.List(ctx, reconcilerPageSize, offset)
		if err != nil {
			log.Printf("ERROR: quota reconciler failed to list tenants: %v", err)
			return
		}
		if len(tenants) == 0 {
			break
		}

		for _, tenant := range tenants {
			if err := r.reconcileTenant(ctx, tenant); err != nil {
				log.Printf("WARN: quota reconciliation failed for tenant %s: %v", tenant.ID, err)
				continue
			}
			reconciled++
		}
		offset += reconcilerPageSize
	}
	log.Printf("Quota reconciliation complete for %d tenants", reconciled)
}

func (r *QuotaReconciler) reconcileTenant(ctx context.Context, tenant *models.Tenant) error {
	projects, err := r.projectRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if err := r.quotaRepo.SetUsage(ctx, tenant.ID, models.QuotaProjects, projects); err != nil {
		return err
	}

	users, err := r.membershipRepo.CountActiveByTenant(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if err := r.quotaRepo.SetUsage(ctx, tenant.ID, models.QuotaUsers, users); err != nil {
		return err
	}

	requirements, err := r.requirementRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if err := r.quotaRepo.SetUsage(ctx, tenant.ID, models.QuotaRequirements, requirements); err != nil {
		return err
	}

	// aiRequests is a consumption meter, not a live count of rows, so it is
	// never recomputed here.

	storage, err := r.attachmentRepo.SumSizeByTenant(ctx, tenant.ID)
	if err != nil {
		return err
	}
	return r.quotaRepo.SetUsage(ctx, tenant.ID, models.QuotaStorage, storage)
}
