package memory

import (
	"context"
	"sync"
	"time"
)

const defaultCleanupInterval = 5 * time.Minute

type item struct {
	value     []byte
	expiresAt time.Time
}

// Cache - in-memory кеш с TTL для одиночного инстанса без Redis
type Cache struct {
	mu       sync.RWMutex
	items    map[string]item
	stopChan chan struct{}
	stopped  bool
	done     chan struct{}
}

func New() *Cache {
	return NewWithInterval(context.Background(), defaultCleanupInterval)
}

func NewWithInterval(ctx context.Context, interval time.Duration) *Cache {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	c := &Cache{
		items:    make(map[string]item),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.cleanup(ctx, interval)
	return c
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || time.Now().After(it.expiresAt) {
		return nil, false, nil
	}
	return it.value, true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// копия, чтобы вызывающий не поменял значение под нами
	v := append([]byte(nil), value...)
	c.mu.Lock()
	c.items[key] = item{value: v, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close останавливает фоновую чистку и ждет ее выхода
func (c *Cache) Close() error {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
	c.mu.Unlock()
	<-c.done
	return nil
}

func (c *Cache) cleanup(ctx context.Context, interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
