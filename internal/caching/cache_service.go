package caching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"forgestudio/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Tenant caching for the resolver hot path
	GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error
	InvalidateTenant(ctx context.Context, tenant *models.Tenant) error

	// AI analysis result caching, keyed by content hash
	GetAnalysis(ctx context.Context, contentHash string) (string, error)
	SetAnalysis(ctx context.Context, contentHash, result string, ttl time.Duration) error

	// Access-token blacklist (logout)
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)

	// Generic string operations
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both host:port and redis://host:port forms.
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "rediss://"), "redis://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

// HashContent derives the cache key for an AI analysis of the given text.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func tenantIDKey(id uuid.UUID) string    { return fmt.Sprintf("tenant:id:%s", id) }
func tenantSlugKey(slug string) string   { return fmt.Sprintf("tenant:slug:%s", slug) }
func analysisKey(hash string) string     { return fmt.Sprintf("analysis:%s", hash) }
func blacklistKey(tokenID string) string { return fmt.Sprintf("token_blacklist:%s", tokenID) }

func (s *redisCacheService) getTenant(ctx context.Context, key string) (*models.Tenant, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	tenant := &models.Tenant{}
	if err := json.Unmarshal([]byte(data), tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *redisCacheService) GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.getTenant(ctx, tenantIDKey(id))
}

func (s *redisCacheService) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return s.getTenant(ctx, tenantSlugKey(slug))
}

func (s *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	data, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, tenantIDKey(tenant.ID), data, ttl).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, tenantSlugKey(tenant.Slug), data, ttl).Err()
}

func (s *redisCacheService) InvalidateTenant(ctx context.Context, tenant *models.Tenant) error {
	return s.client.Del(ctx, tenantIDKey(tenant.ID), tenantSlugKey(tenant.Slug)).Err()
}

func (s *redisCacheService) GetAnalysis(ctx context.Context, contentHash string) (string, error) {
	return s.client.Get(ctx, analysisKey(contentHash)).Result()
}

func (s *redisCacheService) SetAnalysis(ctx context.Context, contentHash, result string, ttl time.Duration) error {
	return s.client.Set(ctx, analysisKey(contentHash), result, ttl).Err()
}

func (s *redisCacheService) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to blacklist
	}
	return s.client.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err()
}

func (s *redisCacheService) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.client.Get(ctx, blacklistKey(tokenID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

func (s *redisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
