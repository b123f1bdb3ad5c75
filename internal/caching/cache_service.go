package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tenantTTL    = 5 * time.Minute
	policyTTL    = 5 * time.Minute
	productTTL   = 10 * time.Minute
	analyticsTTL = 15 * time.Minute
)

type CacheService interface {
	// Tenant caching; reads are best-effort, a miss or error reads as absent.
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, bool)
	GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, bool)
	SetTenant(ctx context.Context, tenant *models.Tenant)
	InvalidateTenant(ctx context.Context, tenant *models.Tenant) error

	// Policy caching
	GetPolicies(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, bool)
	SetPolicies(ctx context.Context, tenantID uuid.UUID, role string, policies []*models.Policy)
	InvalidatePolicies(ctx context.Context, tenantID uuid.UUID)

	// Product caching
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error

	// Analytics caching
	GetTenantAnalytics(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error)
	SetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, analytics map[string]interface{}, ttl time.Duration) error

	// API usage counter, one key per tenant per billing month.
	IncrementAPIUsage(ctx context.Context, tenantID uuid.UUID, period string) (int64, error)
	GetAPIUsage(ctx context.Context, tenantID uuid.UUID, period string) (int64, error)

	// Rate limiting, fixed window per key.
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

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

func (r *redisCacheService) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, bool) {
	key := fmt.Sprintf("crmhub:tenant:sub:%s", subdomain)
	return r.getTenant(ctx, key)
}

func (r *redisCacheService) GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, bool) {
	key := fmt.Sprintf("crmhub:tenant:id:%s", id.String())
	return r.getTenant(ctx, key)
}

func (r *redisCacheService) getTenant(ctx context.Context, key string) (*models.Tenant, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var tenant models.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, false
	}
	return &tenant, true
}

func (r *redisCacheService) SetTenant(ctx context.Context, tenant *models.Tenant) {
	data, err := json.Marshal(tenant)
	if err != nil {
		return
	}
	r.client.Set(ctx, fmt.Sprintf("crmhub:tenant:id:%s", tenant.ID.String()), data, tenantTTL)
	if tenant.Subdomain != "" {
		r.client.Set(ctx, fmt.Sprintf("crmhub:tenant:sub:%s", tenant.Subdomain), data, tenantTTL)
	}
}

func (r *redisCacheService) InvalidateTenant(ctx context.Context, tenant *models.Tenant) error {
	keys := []string{
		fmt.Sprintf("crmhub:tenant:id:%s", tenant.ID.String()),
		fmt.Sprintf("crmhub:tenant:sub:%s", tenant.Subdomain),
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) GetPolicies(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, bool) {
	key := fmt.Sprintf("crmhub:policies:%s:%s", tenantID.String(), role)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var policies []*models.Policy
	if err := json.Unmarshal(data, &policies); err != nil {
		return nil, false
	}
	return policies, true
}

func (r *redisCacheService) SetPolicies(ctx context.Context, tenantID uuid.UUID, role string, policies []*models.Policy) {
	data, err := json.Marshal(policies)
	if err != nil {
		return
	}
	key := fmt.Sprintf("crmhub:policies:%s:%s", tenantID.String(), role)
	r.client.Set(ctx, key, data, policyTTL)
}

func (r *redisCacheService) InvalidatePolicies(ctx context.Context, tenantID uuid.UUID) {
	pattern := fmt.Sprintf("crmhub:policies:%s:*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	r.client.Del(ctx, keys...)
}

func (r *redisCacheService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	key := fmt.Sprintf("crmhub:product:%s:%s", tenantID.String(), productID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *redisCacheService) SetProduct(ctx context.Context, tenantID uuid.UUID, product *models.Product, ttl time.Duration) error {
	key := fmt.Sprintf("crmhub:product:%s:%s", tenantID.String(), product.ID.String())
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	key := fmt.Sprintf("crmhub:product:%s:%s", tenantID.String(), productID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetTenantAnalytics(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error) {
	key := fmt.Sprintf("crmhub:analytics:%s", tenantID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var analytics map[string]interface{}
	if err := json.Unmarshal(data, &analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

func (r *redisCacheService) SetTenantAnalytics(ctx context.Context, tenantID uuid.UUID, analytics map[string]interface{}, ttl time.Duration) error {
	key := fmt.Sprintf("crmhub:analytics:%s", tenantID.String())
	data, err := json.Marshal(analytics)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// IncrementAPIUsage bumps the tenant's call counter for the billing month
// and returns the new total. The key expires well past the month so the
// rollup job can still read it.
func (r *redisCacheService) IncrementAPIUsage(ctx context.Context, tenantID uuid.UUID, period string) (int64, error) {
	key := fmt.Sprintf("crmhub:usage:%s:%s", tenantID.String(), period)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		r.client.Expire(ctx, key, 40*24*time.Hour)
	}
	return count, nil
}

func (r *redisCacheService) GetAPIUsage(ctx context.Context, tenantID uuid.UUID, period string) (int64, error) {
	key := fmt.Sprintf("crmhub:usage:%s:%s", tenantID.String(), period)
	count, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := fmt.Sprintf("crmhub:ratelimit:%s", key)
	count, err := r.client.Get(ctx, fullKey).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	fullKey := fmt.Sprintf("crmhub:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return r.client.Expire(ctx, fullKey, window).Err()
	}
	return nil
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("crmhub:*:%s*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}
