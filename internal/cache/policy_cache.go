package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
)

const (
	policyKeyPrefix     = "stockcast:policy"
	policyScanBatchSize = 100
)

// PolicyKey identifies a cached StockPolicy. A policy is only reusable when
// every input that shaped it matches.
type PolicyKey struct {
	ProductID    int64
	Strategy     string
	HorizonDays  int
	ServiceLevel float64
	LeadTime     int
}

// PolicyCache caches computed stock policies between optimizer runs.
type PolicyCache interface {
	GetPolicy(ctx context.Context, key PolicyKey) (*domain.StockPolicy, bool, error)
	SetPolicy(ctx context.Context, key PolicyKey, policy *domain.StockPolicy) error
	InvalidateProduct(ctx context.Context, productID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisPolicyCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPolicyCache struct{}

func NewPolicyCache(cfg config.CacheConfig) (PolicyCache, error) {
	if !cfg.Enabled {
		return &noopPolicyCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPolicyCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPolicyCache() PolicyCache {
	return &noopPolicyCache{}
}

func (c *redisPolicyCache) GetPolicy(ctx context.Context, key PolicyKey) (*domain.StockPolicy, bool, error) {
	payload, err := c.client.Get(ctx, buildPolicyKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var policy domain.StockPolicy
	if err := json.Unmarshal(payload, &policy); err != nil {
		return nil, false, fmt.Errorf("decode stock policy cache: %w", err)
	}

	return &policy, true, nil
}

func (c *redisPolicyCache) SetPolicy(ctx context.Context, key PolicyKey, policy *domain.StockPolicy) error {
	payload, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode stock policy cache: %w", err)
	}

	if err := c.client.Set(ctx, buildPolicyKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPolicyCache) InvalidateProduct(ctx context.Context, productID int64) error {
	prefix := fmt.Sprintf("%s:%d:", policyKeyPrefix, productID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, policyScanBatchSize)
}

func (c *redisPolicyCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, policyKeyPrefix, policyScanBatchSize)
}

func (n *noopPolicyCache) GetPolicy(ctx context.Context, key PolicyKey) (*domain.StockPolicy, bool, error) {
	return nil, false, nil
}

func (n *noopPolicyCache) SetPolicy(ctx context.Context, key PolicyKey, policy *domain.StockPolicy) error {
	return nil
}

func (n *noopPolicyCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return nil
}

func (n *noopPolicyCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPolicyKey(key PolicyKey) string {
	raw := fmt.Sprintf("strategy=%s|horizon=%d|service_level=%.4f|lead_time=%d",
		key.Strategy, key.HorizonDays, key.ServiceLevel, key.LeadTime)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%d:%s", policyKeyPrefix, key.ProductID, hex.EncodeToString(sum[:]))
}
