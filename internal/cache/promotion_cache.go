// Package cache holds a small in-memory read cache for promotion terms.
// Every promotion mutation goes through this process, so
// invalidate-on-write keeps it coherent. Redemption counters are never
// cached; they are recomputed live at redemption and submission time.
package cache

import (
	"sync"

	"github.com/ertantorizkyf/promotion-service/internal/models"
)

type PromotionCache struct {
	mu     sync.RWMutex
	byCode map[string]*models.PromotionDetail
}

func NewPromotionCache() *PromotionCache {
	return &PromotionCache{
		byCode: make(map[string]*models.PromotionDetail),
	}
}

func (c *PromotionCache) Get(code string) (*models.PromotionDetail, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byCode[code]
	return p, ok
}

func (c *PromotionCache) Set(code string, p *models.PromotionDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCode[code] = p
}

func (c *PromotionCache) Invalidate(codes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, code := range codes {
		delete(c.byCode, code)
	}
}
