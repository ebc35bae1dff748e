package oracle

import (
	"sync"
	"time"
)

type cachedPrice struct {
	price     uint64
	fetchedAt time.Time
}

// Cache хранит последние известные цены. Устаревшие цены считаются недоступными.
type Cache struct {
	mu     sync.RWMutex
	prices map[string]cachedPrice
	maxAge time.Duration
	now    func() time.Time
}

// NewCache создаёт кэш цен. Нулевой maxAge отключает устаревание.
func NewCache(maxAge time.Duration) *Cache {
	return &Cache{
		prices: make(map[string]cachedPrice),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Set сохраняет цену токена.
func (c *Cache) Set(token string, price uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[token] = cachedPrice{price: price, fetchedAt: c.now()}
}

// Price возвращает цену токена, если она известна и не устарела.
func (c *Cache) Price(token string) (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.prices[token]
	if !ok || p.price == 0 {
		return 0, false
	}
	if c.maxAge > 0 && c.now().Sub(p.fetchedAt) > c.maxAge {
		return 0, false
	}
	return p.price, true
}
