package trends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/models"
)

type fakeProvider struct {
	name  string
	items []models.TrendItem
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, count int) ([]models.TrendItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.items) {
		return f.items[:count], nil
	}
	return f.items, nil
}

func makeItems(prefix string, n int, category func(i int) string) []models.TrendItem {
	items := make([]models.TrendItem, n)
	for i := range items {
		items[i] = models.TrendItem{Keyword: fmt.Sprintf("%s-%d", prefix, i+1), Rank: i + 1, Category: category(i), Source: prefix}
	}
	return items
}

func noCategory(int) string { return "" }

func TestTargetCount(t *testing.T) {
	cases := map[int]int{-10: 0, 0: 0, 9: 0, 10: 1, 19: 1, 20: 2, 50: 5, 99: 9, 100: 10, 150: 10}
	for ratio, want := range cases {
		assert.Equal(t, want, TargetCount(ratio), "ratio=%d", ratio)
	}
}

func TestMixZeroRatioIsAlwaysEmpty(t *testing.T) {
	google := &fakeProvider{name: models.TrendSourceGoogle, items: makeItems("g", 5, noCategory)}
	yahoo := &fakeProvider{name: models.TrendSourceYahoo, items: makeItems("y", 5, noCategory)}
	m := NewMixer(5, google, yahoo)

	got := m.Mix(context.Background(), models.TrendSettings{
		EnabledSources: []string{"google", "yahoo"},
		MixRatio:       0,
	})

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, google.calls.Load())
	assert.Zero(t, yahoo.calls.Load())
}

func TestMixFullRatioKeepsSourceOrderAndBound(t *testing.T) {
	google := &fakeProvider{name: models.TrendSourceGoogle, items: makeItems("g", 8, noCategory)}
	yahoo := &fakeProvider{name: models.TrendSourceYahoo, items: makeItems("y", 5, noCategory)}
	m := NewMixer(5, google, yahoo)

	// 사용자 설정의 순서와 무관하게 google 이 먼저다.
	got := m.Mix(context.Background(), models.TrendSettings{
		EnabledSources: []string{"yahoo", "google"},
		MixRatio:       100,
	})

	require.Len(t, got, 10)
	assert.Equal(t, "g-1", got[0].Keyword)
	assert.Equal(t, "g-5", got[4].Keyword)
	assert.Equal(t, "y-1", got[5].Keyword)
	assert.Equal(t, "y-5", got[9].Keyword)
}

func TestMixTruncatesPositionally(t *testing.T) {
	google := &fakeProvider{name: models.TrendSourceGoogle, items: makeItems("g", 5, noCategory)}
	yahoo := &fakeProvider{name: models.TrendSourceYahoo, items: makeItems("y", 5, noCategory)}
	m := NewMixer(5, google, yahoo)

	got := m.Mix(context.Background(), models.TrendSettings{
		EnabledSources: []string{"google", "yahoo"},
		MixRatio:       35,
	})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"g-1", "g-2", "g-3"}, keywords(got))
}

func TestMixDropsExcludedCategories(t *testing.T) {
	category := func(i int) string {
		if i%2 == 0 {
			return "Sports"
		}
		return "tech"
	}
	google := &fakeProvider{name: models.TrendSourceGoogle, items: makeItems("g", 5, category)}
	yahoo := &fakeProvider{name: models.TrendSourceYahoo, items: makeItems("y", 5, category)}
	m := NewMixer(5, google, yahoo)

	got := m.Mix(context.Background(), models.TrendSettings{
		EnabledSources:     []string{"google", "yahoo"},
		MixRatio:           100,
		ExcludedCategories: []string{"sports"},
	})

	assert.Len(t, got, 4)
	for _, item := range got {
		assert.NotEqual(t, "Sports", item.Category)
	}
}

func TestMixSkipsBlankKeywords(t *testing.T) {
	items := makeItems("g", 4, noCategory)
	items[0].Keyword = " "
	m := NewMixer(5, &fakeProvider{name: models.TrendSourceGoogle, items: items})

	got := m.Mix(context.Background(), models.TrendSettings{EnabledSources: []string{"google"}, MixRatio: 30})

	assert.Equal(t, []string{"g-2", "g-3", "g-4"}, keywords(got))
}

func TestMixAbsorbsSingleSourceFailure(t *testing.T) {
	google := &fakeProvider{name: models.TrendSourceGoogle, err: errors.New("503")}
	yahoo := &fakeProvider{name: models.TrendSourceYahoo, items: makeItems("y", 5, noCategory)}
	m := NewMixer(5, google, yahoo)

	got := m.Mix(context.Background(), models.TrendSettings{
		EnabledSources: []string{"google", "yahoo"},
		MixRatio:       100,
	})

	assert.Equal(t, []string{"y-1", "y-2", "y-3", "y-4", "y-5"}, keywords(got))
}

func TestMixSkipsDisabledAndUnknownSources(t *testing.T) {
	google := &fakeProvider{name: models.TrendSourceGoogle, items: makeItems("g", 5, noCategory)}
	yahoo := &fakeProvider{name: models.TrendSourceYahoo, items: makeItems("y", 5, noCategory)}
	m := NewMixer(5, google, yahoo)

	got := m.Mix(context.Background(), models.TrendSettings{
		EnabledSources: []string{"yahoo", "tiktok"},
		MixRatio:       60,
	})

	assert.Equal(t, []string{"y-1", "y-2", "y-3", "y-4", "y-5"}, keywords(got))
	assert.Zero(t, google.calls.Load())
}

const trendFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Daily Search Trends</title>
<item><title>大谷翔平</title><category>Sports</category></item>
<item><title>  </title></item>
<item><title>新型スマホ</title><category>Tech</category></item>
<item><title>紅葉</title></item>
</channel>
</rss>`

func TestFeedProviderParsesRankedItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(trendFeed))
	}))
	defer srv.Close()

	p := NewFeedProvider("google", srv.URL, 5*time.Second)
	items, err := p.Fetch(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, models.TrendItem{Keyword: "大谷翔平", Rank: 1, Category: "Sports", Source: "google"}, items[0])
	assert.Equal(t, models.TrendItem{Keyword: "新型スマホ", Rank: 2, Category: "Tech", Source: "google"}, items[1])
}

func TestFeedProviderReturnsErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFeedProvider("yahoo", srv.URL, time.Second).Fetch(context.Background(), 5)
	assert.Error(t, err)
}

func keywords(items []models.TrendItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Keyword
	}
	return out
}
