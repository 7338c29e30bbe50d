package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeClock(start time.Time) (*Cache, func(time.Duration)) {
	c := New(5 * time.Minute)
	cur := start
	var mu sync.Mutex
	c.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}
	advance := func(d time.Duration) {
		mu.Lock()
		cur = cur.Add(d)
		mu.Unlock()
	}
	return c, advance
}

func TestGetAfterSet(t *testing.T) {
	c, _ := newFakeClock(time.Unix(1700000000, 0))

	c.Set("weather_london", map[string]any{"temperature": 12})
	got, ok := c.Get("weather_london")
	require.True(t, ok, "no false miss directly after write")
	assert.Equal(t, map[string]any{"temperature": 12}, got)
}

func TestMissOnUnknownKey(t *testing.T) {
	c, _ := newFakeClock(time.Unix(1700000000, 0))

	got, ok := c.Get("never_fetched")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestExpiryBoundary(t *testing.T) {
	c, advance := newFakeClock(time.Unix(1700000000, 0))

	c.Set("news_general", "headlines")

	advance(5*time.Minute - time.Second)
	_, ok := c.Get("news_general")
	assert.True(t, ok, "entry must stay valid before recordedAt+ttl")
	assert.True(t, c.Valid("news_general"))

	advance(time.Second)
	_, ok = c.Get("news_general")
	assert.False(t, ok, "entry must be absent once age reaches ttl")
	assert.False(t, c.Valid("news_general"))
}

func TestPerEntryTTL(t *testing.T) {
	c, advance := newFakeClock(time.Unix(1700000000, 0))

	c.SetTTL("daily_quote", "per aspera", 24*time.Hour)
	c.Set("weather_paris", "cloudy")

	advance(6 * time.Minute)
	_, ok := c.Get("weather_paris")
	assert.False(t, ok)
	got, ok := c.Get("daily_quote")
	require.True(t, ok)
	assert.Equal(t, "per aspera", got)

	advance(24 * time.Hour)
	_, ok = c.Get("daily_quote")
	assert.False(t, ok)
}

func TestOverwriteRefreshes(t *testing.T) {
	c, advance := newFakeClock(time.Unix(1700000000, 0))

	c.Set("weather_oslo", "old")
	advance(10 * time.Minute)
	_, ok := c.Get("weather_oslo")
	require.False(t, ok)

	c.Set("weather_oslo", "new")
	got, ok := c.Get("weather_oslo")
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}

func TestStaleEntriesAreKeptNotSwept(t *testing.T) {
	c, advance := newFakeClock(time.Unix(1700000000, 0))

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	advance(time.Hour)

	for i := 0; i < 10; i++ {
		_, ok := c.Get(fmt.Sprintf("k%d", i))
		assert.False(t, ok)
	}
	assert.Equal(t, 10, c.Len(), "expired entries linger until overwritten")
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%5)
				c.Set(key, n)
				c.Get(key)
				c.Valid(key)
			}
		}(i)
	}
	wg.Wait()
}
