package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/immersivekit/meshgen/pkg/models"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping verifies the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Descriptor Cache Operations

// SetDescriptor caches the probed descriptor for an asset
func (c *Cache) SetDescriptor(ctx context.Context, assetID string, d models.VideoDescriptor, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	key := fmt.Sprintf("descriptor:%s", assetID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetDescriptor retrieves a cached descriptor. A nil result with nil error
// is a cache miss.
func (c *Cache) GetDescriptor(ctx context.Context, assetID string) (*models.VideoDescriptor, error) {
	key := fmt.Sprintf("descriptor:%s", assetID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get descriptor from cache: %w", err)
	}

	var d models.VideoDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal descriptor: %w", err)
	}

	return &d, nil
}

// DeleteDescriptor removes a cached descriptor
func (c *Cache) DeleteDescriptor(ctx context.Context, assetID string) error {
	key := fmt.Sprintf("descriptor:%s", assetID)
	return c.client.Del(ctx, key).Err()
}

// Mesh Cache Operations

// SetMesh caches a generated mesh keyed by asset ID. Writing a newer mesh
// for the same asset overwrites the previous one, which is how a
// superseded in-flight build's stale result gets discarded.
func (c *Cache) SetMesh(ctx context.Context, assetID string, mesh *models.GeneratedMesh, ttl time.Duration) error {
	data, err := json.Marshal(mesh)
	if err != nil {
		return fmt.Errorf("failed to marshal mesh: %w", err)
	}

	key := fmt.Sprintf("mesh:%s", assetID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetMesh retrieves a cached mesh. A nil result with nil error is a cache
// miss.
func (c *Cache) GetMesh(ctx context.Context, assetID string) (*models.GeneratedMesh, error) {
	key := fmt.Sprintf("mesh:%s", assetID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get mesh from cache: %w", err)
	}

	var mesh models.GeneratedMesh
	if err := json.Unmarshal(data, &mesh); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mesh: %w", err)
	}

	return &mesh, nil
}

// DeleteMesh removes a cached mesh
func (c *Cache) DeleteMesh(ctx context.Context, assetID string) error {
	key := fmt.Sprintf("mesh:%s", assetID)
	return c.client.Del(ctx, key).Err()
}

// Build Cache Operations

// SetBuild caches build status for quick polling
func (c *Cache) SetBuild(ctx context.Context, build *models.Build, ttl time.Duration) error {
	data, err := json.Marshal(build)
	if err != nil {
		return fmt.Errorf("failed to marshal build: %w", err)
	}

	key := fmt.Sprintf("build:%s", build.ID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetBuild retrieves a cached build. A nil result with nil error is a
// cache miss.
func (c *Cache) GetBuild(ctx context.Context, buildID string) (*models.Build, error) {
	key := fmt.Sprintf("build:%s", buildID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get build from cache: %w", err)
	}

	var build models.Build
	if err := json.Unmarshal(data, &build); err != nil {
		return nil, fmt.Errorf("failed to unmarshal build: %w", err)
	}

	return &build, nil
}
