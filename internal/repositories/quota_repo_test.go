package repositories

import (
	"context"
	"testing"
	"time"

	"forgestudio/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type QuotaRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     QuotaRepository
	tenantID uuid.UUID
	context  context.Context
}

func (suite *QuotaRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewQuotaRepository(mock)
	suite.tenantID = uuid.New()
	suite.context = context.Background()
}

func (suite *QuotaRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestQuotaRepoTestSuite(t *testing.T) {
	suite.Run(t, new(QuotaRepoTestSuite))
}

func (suite *QuotaRepoTestSuite) TestGetByTenantID_Success() {
	now := time.Now()
	suite.mock.ExpectQuery(`
		SELECT id, tenant_id,
			max_projects, used_projects, max_users, used_users,
			max_requirements, used_requirements, max_ai_requests, used_ai_requests,
			max_storage, used_storage, created_at, updated_at
		FROM tenant_quotas
		WHERE tenant_id = \$1
	`).WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id",
			"max_projects", "used_projects", "max_users", "used_users",
			"max_requirements", "used_requirements", "max_ai_requests", "used_ai_requests",
			"max_storage", "used_storage", "created_at", "updated_at",
		}).AddRow(uuid.New(), suite.tenantID,
			int64(10), int64(3), int64(5), int64(2),
			int64(100), int64(40), int64(50), int64(12),
			int64(1073741824), int64(2048), now, now))

	quota, err := suite.repo.GetByTenantID(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenantID, quota.TenantID)
	assert.Equal(suite.T(), int64(3), quota.UsedProjects)
	assert.Equal(suite.T(), int64(50), quota.MaxAIRequests)
}

func (suite *QuotaRepoTestSuite) TestGetByTenantID_Missing() {
	suite.mock.ExpectQuery(`FROM tenant_quotas`).
		WithArgs(suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	quota, err := suite.repo.GetByTenantID(suite.context, suite.tenantID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), quota)
}

func (suite *QuotaRepoTestSuite) TestTryReserve_Success() {
	// Reservation and limit check are one conditional UPDATE; concurrent
	// requests cannot both pass a nearly-full quota.
	suite.mock.ExpectExec(`
		UPDATE tenant_quotas
		SET used_projects = GREATEST\(used_projects \+ \$1, 0\), updated_at = NOW\(\)
		WHERE tenant_id = \$2 AND used_projects \+ \$1 <= max_projects
	`).WithArgs(int64(1), suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := suite.repo.TryReserve(suite.context, suite.tenantID, models.QuotaProjects, 1)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *QuotaRepoTestSuite) TestTryReserve_LimitReached() {
	suite.mock.ExpectExec(`
		UPDATE tenant_quotas
		SET used_projects = GREATEST\(used_projects \+ \$1, 0\), updated_at = NOW\(\)
		WHERE tenant_id = \$2 AND used_projects \+ \$1 <= max_projects
	`).WithArgs(int64(1), suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := suite.repo.TryReserve(suite.context, suite.tenantID, models.QuotaProjects, 1)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *QuotaRepoTestSuite) TestTryReserve_MissingRow() {
	// No quota row matches the WHERE clause, so the reservation is refused
	// rather than silently granted.
	suite.mock.ExpectExec(`
		UPDATE tenant_quotas
		SET used_storage = GREATEST\(used_storage \+ \$1, 0\), updated_at = NOW\(\)
		WHERE tenant_id = \$2 AND used_storage \+ \$1 <= max_storage
	`).WithArgs(int64(4096), suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := suite.repo.TryReserve(suite.context, suite.tenantID, models.QuotaStorage, 4096)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *QuotaRepoTestSuite) TestTryReserve_UnknownResource() {
	ok, err := suite.repo.TryReserve(suite.context, suite.tenantID, models.QuotaResource("gpuHours"), 1)
	assert.Error(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *QuotaRepoTestSuite) TestIncrement_NegativeDeltaFlooredAtZero() {
	// GREATEST keeps over-release from driving the counter negative.
	suite.mock.ExpectExec(`
		UPDATE tenant_quotas
		SET used_users = GREATEST\(used_users \+ \$1, 0\), updated_at = NOW\(\)
		WHERE tenant_id = \$2
	`).WithArgs(int64(-3), suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Increment(suite.context, suite.tenantID, models.QuotaUsers, -3)
	assert.NoError(suite.T(), err)
}

func (suite *QuotaRepoTestSuite) TestIncrement_UnknownResource() {
	err := suite.repo.Increment(suite.context, suite.tenantID, models.QuotaResource("bandwidth"), 1)
	assert.Error(suite.T(), err)
}

func (suite *QuotaRepoTestSuite) TestSetUsage_ClampsNegativeValues() {
	suite.mock.ExpectExec(`
		UPDATE tenant_quotas
		SET used_requirements = \$1, updated_at = NOW\(\)
		WHERE tenant_id = \$2
	`).WithArgs(int64(0), suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SetUsage(suite.context, suite.tenantID, models.QuotaRequirements, -5)
	assert.NoError(suite.T(), err)
}

func (suite *QuotaRepoTestSuite) TestSetUsage_Success() {
	suite.mock.ExpectExec(`
		UPDATE tenant_quotas
		SET used_ai_requests = \$1, updated_at = NOW\(\)
		WHERE tenant_id = \$2
	`).WithArgs(int64(17), suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.SetUsage(suite.context, suite.tenantID, models.QuotaAIRequests, 17)
	assert.NoError(suite.T(), err)
}

func (suite *QuotaRepoTestSuite) TestCreate_Success() {
	quota := &models.TenantQuota{
		ID:              uuid.New(),
		TenantID:        suite.tenantID,
		MaxProjects:     models.DefaultMaxProjects,
		MaxUsers:        models.DefaultMaxUsers,
		MaxRequirements: models.DefaultMaxRequirements,
		MaxAIRequests:   models.DefaultMaxAIRequests,
		MaxStorage:      models.DefaultMaxStorage,
	}

	suite.mock.ExpectExec(`INSERT INTO tenant_quotas`).
		WithArgs(quota.ID, quota.TenantID,
			quota.MaxProjects, quota.UsedProjects, quota.MaxUsers, quota.UsedUsers,
			quota.MaxRequirements, quota.UsedRequirements, quota.MaxAIRequests, quota.UsedAIRequests,
			quota.MaxStorage, quota.UsedStorage).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, quota)
	assert.NoError(suite.T(), err)
}
