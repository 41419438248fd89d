package cache

import (
	"context"
	"sync"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// MemoryVerdictCache keeps verdicts for the life of the process.
type MemoryVerdictCache struct {
	mu       sync.RWMutex
	verdicts map[string]domain.Verdict
}

var _ ports.VerdictCache = (*MemoryVerdictCache)(nil)

// NewMemory returns an empty cache.
func NewMemory() *MemoryVerdictCache {
	return &MemoryVerdictCache{verdicts: make(map[string]domain.Verdict)}
}

func (c *MemoryVerdictCache) Get(_ context.Context, key string) (domain.Verdict, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.verdicts[key]
	return v, ok, nil
}

func (c *MemoryVerdictCache) Put(_ context.Context, key string, verdict domain.Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[key] = verdict
	return nil
}

// Len reports how many verdicts are cached.
func (c *MemoryVerdictCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}
