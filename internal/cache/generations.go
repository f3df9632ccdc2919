package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/generation-service/internal/models"
)

const generationKeyPrefix = "generation:"

// GenerationCache кэширует записи заданий, достигших терминального статуса.
type GenerationCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewGenerationCache создаёт кэш заданий поверх c.
func NewGenerationCache(c *Cache, ttl time.Duration) *GenerationCache {
	return &GenerationCache{cache: c, ttl: ttl}
}

func generationKey(id string) string {
	return generationKeyPrefix + id
}

// GetGeneration возвращает закэшированное задание или false, если его нет.
func (g *GenerationCache) GetGeneration(ctx context.Context, id string) (*models.Generation, bool, error) {
	var gen models.Generation
	found, err := g.cache.Get(ctx, generationKey(id), &gen)
	if err != nil || !found {
		return nil, false, err
	}
	return &gen, true, nil
}

// SetGeneration кладёт задание в кэш. Незавершённые задания не кэшируются.
func (g *GenerationCache) SetGeneration(ctx context.Context, gen *models.Generation) error {
	if gen == nil || !gen.Status.IsTerminal() {
		return fmt.Errorf("cache.SetGeneration: only terminal generations can be cached")
	}
	return g.cache.Set(ctx, generationKey(gen.ID), gen, g.ttl)
}
