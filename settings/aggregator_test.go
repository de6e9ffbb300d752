package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"autopost/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memStore struct {
	mu       sync.Mutex
	payloads map[models.Category][]byte
	errs     map[models.Category]error
	calls    int
}

func newMemStore() *memStore {
	return &memStore{payloads: map[models.Category][]byte{}, errs: map[models.Category]error{}}
}

func (s *memStore) Get(_ context.Context, _ string, category models.Category) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.errs[category]; ok {
		return nil, err
	}
	raw, ok := s.payloads[category]
	if !ok {
		return nil, ErrNotFound
	}
	return raw, nil
}

func (s *memStore) Put(_ context.Context, _ string, category models.Category, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[category] = payload
	return nil
}

type stubPersonas struct {
	persona *models.Persona
	err     error
}

func (s stubPersonas) FindPersona(context.Context, string) (*models.Persona, error) {
	return s.persona, s.err
}

type stubActivities struct {
	items    []models.Activity
	err      error
	gotSince time.Time
	gotLimit int
	mu       sync.Mutex
}

func (s *stubActivities) RecentActivities(_ context.Context, _ string, since time.Time, limit int) ([]models.Activity, error) {
	s.mu.Lock()
	s.gotSince, s.gotLimit = since, limit
	s.mu.Unlock()
	return s.items, s.err
}

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestAggregateUsesDefaultsWhenNothingStored(t *testing.T) {
	agg := NewAggregator(newMemStore(), nil, nil, WithClock(clock))

	got := agg.Aggregate(context.Background(), "user-001")

	assert.Equal(t, "user-001", got.Identity)
	assert.Equal(t, models.DefaultToneSettings(), got.Tone)
	assert.Equal(t, models.DefaultWeeklyThemeSettings(), got.WeeklyTheme)
	assert.Equal(t, models.DefaultTrendSettings(), got.Trend)
	assert.Equal(t, models.DefaultTemplateSettings(), got.Template)
	assert.Equal(t, models.DefaultPromptRules(), got.PromptRules)
	assert.Equal(t, models.DefaultEventSettings(), got.Events)
	assert.Equal(t, models.DefaultScheduleSettings(), got.Schedule)
	assert.Nil(t, got.Persona)
	assert.NotNil(t, got.RecentActivities)
	assert.Empty(t, got.RecentActivities)
	require.Len(t, got.Sources, len(models.AllCategories))
	for _, c := range models.AllCategories {
		assert.Equal(t, SourceDefaultMissing, got.Sources[c], string(c))
	}
	if diff := cmp.Diff(Defaults("user-001"), got); diff != "" {
		t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateAbsorbsSingleCategoryFailure(t *testing.T) {
	store := newMemStore()
	store.payloads[models.CategoryTone] = []byte(`{"politeness": 95, "emoji_usage": 5}`)
	store.payloads[models.CategoryTrend] = []byte(`{"enabled_sources": ["google"], "mix_ratio": 40, "mix_style": "hashtag"}`)
	store.errs[models.CategoryTemplate] = errors.New("connection refused")
	store.payloads[models.CategoryPromptRules] = []byte(`{"ng_words": [`)

	agg := NewAggregator(store, nil, nil, WithClock(clock))
	got := agg.Aggregate(context.Background(), "user-001")

	assert.Equal(t, 95, got.Tone.Politeness)
	assert.Equal(t, 5, got.Tone.EmojiUsage)
	// 누락된 필드는 기본값을 유지한다.
	assert.Equal(t, models.DefaultToneSettings().Casualness, got.Tone.Casualness)
	assert.Equal(t, []string{"google"}, got.Trend.EnabledSources)
	assert.Equal(t, models.MixStyleHashtag, got.Trend.MixStyle)

	assert.Equal(t, models.DefaultTemplateSettings(), got.Template)
	assert.Equal(t, models.DefaultPromptRules(), got.PromptRules)

	assert.Equal(t, SourceStored, got.Sources[models.CategoryTone])
	assert.Equal(t, SourceDefaultError, got.Sources[models.CategoryTemplate])
	assert.Equal(t, SourceDefaultError, got.Sources[models.CategoryPromptRules])
	assert.Equal(t, SourceDefaultMissing, got.Sources[models.CategoryEvents])
	assert.Equal(t, len(models.AllCategories), store.calls)
}

func TestAggregateNormalizesOutOfRangeValues(t *testing.T) {
	store := newMemStore()
	store.payloads[models.CategoryTone] = []byte(`{"politeness": 150, "casualness": -3}`)
	store.payloads[models.CategoryTrend] = []byte(`{"mix_ratio": 250, "mix_style": "loud"}`)
	store.payloads[models.CategoryPromptRules] = []byte(`{"creativity_level": 1.7}`)

	got := NewAggregator(store, nil, nil, WithClock(clock)).Aggregate(context.Background(), "u")

	assert.Equal(t, 100, got.Tone.Politeness)
	assert.Equal(t, 0, got.Tone.Casualness)
	assert.Equal(t, 100, got.Trend.MixRatio)
	assert.Equal(t, models.MixStyleNatural, got.Trend.MixStyle)
	assert.Equal(t, 1.0, got.PromptRules.CreativityLevel)
}

func TestAggregateIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.payloads[models.CategoryTone] = []byte(`{"politeness": 10}`)
	store.payloads[models.CategoryTemplate] = []byte(`{"enabled": ["tips","story"], "priorities": {"tips": 2, "story": 1}}`)
	store.payloads[models.CategoryEvents] = []byte(`{"events": [{"id": "e1", "name": "誕生日", "date": "2026-10-19", "enabled": true}]}`)
	persona := &models.Persona{Summary: "カフェ好き", Traits: []models.PersonaTrait{{Category: "style", Trait: "明るい", Confidence: 0.8}}}
	acts := &stubActivities{items: []models.Activity{{Text: "朝のジョギング", CreatedAt: fixedNow.Add(-time.Hour)}}}

	agg := NewAggregator(store, stubPersonas{persona: persona}, acts, WithClock(clock))
	first := agg.Aggregate(context.Background(), "user-001")
	second := agg.Aggregate(context.Background(), "user-001")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("aggregate is not idempotent (-first +second):\n%s", diff)
	}
}

func TestAggregatePersonaAbsenceAndErrors(t *testing.T) {
	store := newMemStore()

	missing := NewAggregator(store, stubPersonas{err: ErrNotFound}, nil, WithClock(clock)).Aggregate(context.Background(), "u")
	assert.Nil(t, missing.Persona)

	broken := NewAggregator(store, stubPersonas{err: errors.New("timeout")}, nil, WithClock(clock)).Aggregate(context.Background(), "u")
	assert.Nil(t, broken.Persona)

	persona := &models.Persona{Summary: "s"}
	present := NewAggregator(store, stubPersonas{persona: persona}, nil, WithClock(clock)).Aggregate(context.Background(), "u")
	assert.Equal(t, persona, present.Persona)
}

func TestAggregateFiltersRecentActivities(t *testing.T) {
	acts := &stubActivities{items: []models.Activity{
		{Text: "old", CreatedAt: fixedNow.Add(-80 * time.Hour)},
		{Text: "   ", CreatedAt: fixedNow.Add(-time.Hour)},
		{Text: "second", CreatedAt: fixedNow.Add(-2 * time.Hour)},
		{Text: "first", CreatedAt: fixedNow.Add(-30 * time.Minute)},
		{Text: "third", CreatedAt: fixedNow.Add(-3 * time.Hour)},
	}}

	agg := NewAggregator(newMemStore(), nil, acts, WithClock(clock), WithActivityLimit(2))
	got := agg.Aggregate(context.Background(), "u")

	require.Len(t, got.RecentActivities, 2)
	assert.Equal(t, "first", got.RecentActivities[0].Text)
	assert.Equal(t, "second", got.RecentActivities[1].Text)
	assert.Equal(t, fixedNow.Add(-72*time.Hour), acts.gotSince)
	assert.Equal(t, 2, acts.gotLimit)
}

func TestAggregateAbsorbsActivityStoreError(t *testing.T) {
	acts := &stubActivities{err: errors.New("boom")}
	got := NewAggregator(newMemStore(), nil, acts, WithClock(clock)).Aggregate(context.Background(), "u")
	assert.NotNil(t, got.RecentActivities)
	assert.Empty(t, got.RecentActivities)
}

func TestDecodePayloadRejectsUnknownCategory(t *testing.T) {
	_, err := DecodePayload(models.Category("audio"), []byte(`{}`))
	assert.Error(t, err)
	assert.Nil(t, DefaultPayload(models.Category("audio")))
}

func TestDefaultPayloadCoversEveryCategory(t *testing.T) {
	for _, c := range models.AllCategories {
		p := DefaultPayload(c)
		require.NotNil(t, p, string(c))
		assert.Equal(t, c, p.Category())
	}
}
