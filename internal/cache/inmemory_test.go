package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetOrCreateReturnsSameValue(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()
	key := GenerateKey(PrefixRateLimit, "203.0.113.7")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[*int]struct{})
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.GetOrCreate(ctx, key, time.Minute, func() interface{} {
				n := 0
				return &n
			}).(*int)
			mu.Lock()
			results[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, results, 1)
}

func TestDeleteByPrefix(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	c.Set(ctx, GenerateKey(PrefixRateLimit, "a"), 1, time.Minute)
	c.Set(ctx, GenerateKey(PrefixRateLimit, "b"), 2, time.Minute)
	c.Set(ctx, "other:key", 3, time.Minute)

	c.DeleteByPrefix(ctx, PrefixRateLimit)

	_, ok := c.Get(ctx, GenerateKey(PrefixRateLimit, "a"))
	assert.False(t, ok)
	v, ok := c.Get(ctx, "other:key")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}
