package services

import (
	"context"
	"testing"

	"forgestudio/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type QuotaServiceTestSuite struct {
	suite.Suite
	mockRepo *MockQuotaRepository
	service  QuotaService
	tenantID uuid.UUID
	ctx      context.Context
}

func (suite *QuotaServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockQuotaRepository{}
	suite.service = NewQuotaService(suite.mockRepo)
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()

	suite.mockRepo.Test(suite.T())
}

func (suite *QuotaServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestQuotaServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QuotaServiceTestSuite))
}

func (suite *QuotaServiceTestSuite) quota(usedProjects int64) *models.TenantQuota {
	return &models.TenantQuota{
		ID:           uuid.New(),
		TenantID:     suite.tenantID,
		MaxProjects:  models.DefaultMaxProjects,
		UsedProjects: usedProjects,
		MaxUsers:     models.DefaultMaxUsers,
		UsedUsers:    1,
		MaxStorage:   models.DefaultMaxStorage,
	}
}

func (suite *QuotaServiceTestSuite) TestCheck_UnderLimit() {
	suite.mockRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(suite.quota(9), nil)

	usage, err := suite.service.Check(suite.ctx, suite.tenantID, models.QuotaProjects)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), usage.Allowed)
	assert.Equal(suite.T(), int64(9), usage.Current)
	assert.Equal(suite.T(), int64(models.DefaultMaxProjects), usage.Limit)
}

func (suite *QuotaServiceTestSuite) TestCheck_AtLimit() {
	suite.mockRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(suite.quota(models.DefaultMaxProjects), nil)

	usage, err := suite.service.Check(suite.ctx, suite.tenantID, models.QuotaProjects)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), usage.Allowed)
	assert.Equal(suite.T(), int64(models.DefaultMaxProjects), usage.Current)
}

func (suite *QuotaServiceTestSuite) TestCheck_MissingRowFailsClosed() {
	suite.mockRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(nil, pgx.ErrNoRows)

	usage, err := suite.service.Check(suite.ctx, suite.tenantID, models.QuotaProjects)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), usage.Allowed)
	assert.Equal(suite.T(), int64(0), usage.Current)
	assert.Equal(suite.T(), int64(0), usage.Limit)
}

func (suite *QuotaServiceTestSuite) TestCheck_UnknownResourceFailsClosed() {
	suite.mockRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(suite.quota(0), nil)

	usage, err := suite.service.Check(suite.ctx, suite.tenantID, models.QuotaResource("gpuHours"))
	require.NoError(suite.T(), err)
	assert.False(suite.T(), usage.Allowed)
}

func (suite *QuotaServiceTestSuite) TestCheck_StorageByBytes() {
	quota := suite.quota(0)
	quota.UsedStorage = 512
	suite.mockRepo.On("GetByTenantID", suite.ctx, suite.tenantID).Return(quota, nil)

	usage, err := suite.service.Check(suite.ctx, suite.tenantID, models.QuotaStorage)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), usage.Allowed)
	assert.Equal(suite.T(), int64(512), usage.Current)
	assert.Equal(suite.T(), int64(models.DefaultMaxStorage), usage.Limit)
}

func (suite *QuotaServiceTestSuite) TestReserve_Success() {
	suite.mockRepo.On("TryReserve", suite.ctx, suite.tenantID, models.QuotaProjects, int64(1)).Return(true, nil)

	ok, err := suite.service.Reserve(suite.ctx, suite.tenantID, models.QuotaProjects, 1)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *QuotaServiceTestSuite) TestReserve_LimitReached() {
	suite.mockRepo.On("TryReserve", suite.ctx, suite.tenantID, models.QuotaProjects, int64(1)).Return(false, nil)

	ok, err := suite.service.Reserve(suite.ctx, suite.tenantID, models.QuotaProjects, 1)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *QuotaServiceTestSuite) TestRelease_NegatesDelta() {
	suite.mockRepo.On("Increment", suite.ctx, suite.tenantID, models.QuotaStorage, int64(-2048)).Return(nil)

	err := suite.service.Release(suite.ctx, suite.tenantID, models.QuotaStorage, 2048)
	require.NoError(suite.T(), err)
}
