package scoring

import (
	"context"
	"strings"
	"sync"
	"time"

	"RigorScore/internal/domain"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func filler(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func weighted(src domain.Source) domain.WeightedSource {
	if src.Text != "" && src.ContentHash == "" {
		src.ContentHash = domain.HashText(src.Text)
	}
	return domain.WeightedSource{Source: src, Weight: domain.DefaultSourceWeight}
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]domain.Verdict
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string]domain.Verdict{}}
}

func (c *mapCache) Get(_ context.Context, key string) (domain.Verdict, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok, nil
}

func (c *mapCache) Put(_ context.Context, key string, v domain.Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = v
	return nil
}
