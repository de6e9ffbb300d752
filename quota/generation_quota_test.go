package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestDailyLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)}
	l := NewGenerationQuotaLimiter(config.GenerationQuota{RequestsPerDay: 2})
	l.now = clock.Now

	for i := 0; i < 2; i++ {
		ok, err := l.WaitAndReserve(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.WaitAndReserve(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	// 날짜가 바뀌면 초기화된다.
	clock.Advance(2 * time.Hour)
	ok, err = l.WaitAndReserve(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlimitedWhenZero(t *testing.T) {
	l := NewGenerationQuotaLimiter(config.GenerationQuota{})
	for i := 0; i < 100; i++ {
		ok, err := l.WaitAndReserve(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestPerMinuteSpacingHonoursContext(t *testing.T) {
	l := NewGenerationQuotaLimiter(config.GenerationQuota{RequestsPerMinute: 1})

	ok, err := l.WaitAndReserve(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err = l.WaitAndReserve(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPerMinuteSpacingWaits(t *testing.T) {
	l := NewGenerationQuotaLimiter(config.GenerationQuota{RequestsPerMinute: 60 * 50}) // 20ms 간격

	start := time.Now()
	for i := 0; i < 3; i++ {
		ok, err := l.WaitAndReserve(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
