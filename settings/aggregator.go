package settings

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"autopost/config"
	"autopost/metrics"
	"autopost/models"
)

// Source 는 집계된 카테고리 값의 출처다.
type Source string

const (
	SourceStored         Source = "stored"
	SourceDefaultMissing Source = "default_missing"
	SourceDefaultError   Source = "default_error"
)

// AggregatedSettings 는 프롬프트 조합에 필요한 모든 사용자 설정이다. 항상 모든 필드가 채워진다.
type AggregatedSettings struct {
	Identity         string
	Schedule         models.ScheduleSettings
	WeeklyTheme      models.WeeklyThemeSettings
	Events           models.EventSettings
	Trend            models.TrendSettings
	Tone             models.ToneSettings
	Template         models.TemplateSettings
	PromptRules      models.PromptRules
	Persona          *models.Persona
	RecentActivities []models.Activity
	Sources          map[models.Category]Source
}

// Aggregator 는 설정 카테고리, 페르소나, 최근 활동을 병렬로 가져온다.
// 개별 조회 실패는 기본값으로 흡수되며 Aggregate 자체는 실패하지 않는다.
type Aggregator struct {
	store      Store
	personas   PersonaStore
	activities ActivityStore

	activityWindow time.Duration
	activityLimit  int
	now            func() time.Time
}

type Option func(*Aggregator)

// WithActivityWindow 는 최근 활동을 읽어 올 기간이다 (기본 72h).
func WithActivityWindow(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.activityWindow = d
		}
	}
}

// WithActivityLimit 는 최근 활동의 최대 개수다 (기본 5).
func WithActivityLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.activityLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator 는 집계기를 생성한다. personas, activities 는 nil 일 수 있다.
func NewAggregator(store Store, personas PersonaStore, activities ActivityStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:          store,
		personas:       personas,
		activities:     activities,
		activityWindow: 72 * time.Hour,
		activityLimit:  5,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type categoryResult struct {
	payload Payload
	source  Source
}

// Aggregate 는 항상 완전히 채워진 AggregatedSettings 를 반환한다.
func (a *Aggregator) Aggregate(ctx context.Context, identity string) AggregatedSettings {
	results := make([]categoryResult, len(models.AllCategories))
	var persona *models.Persona
	var activities []models.Activity

	// 각 분기는 오류를 반환하지 않으므로 하나가 실패해도 나머지는 취소되지 않는다.
	var g errgroup.Group
	for i, category := range models.AllCategories {
		g.Go(func() error {
			results[i] = a.fetchCategory(ctx, identity, category)
			return nil
		})
	}
	g.Go(func() error {
		persona = a.fetchPersona(ctx, identity)
		return nil
	})
	g.Go(func() error {
		activities = a.fetchActivities(ctx, identity)
		return nil
	})
	_ = g.Wait()

	out := AggregatedSettings{
		Identity:         identity,
		Persona:          persona,
		RecentActivities: activities,
		Sources:          make(map[models.Category]Source, len(results)),
	}
	for _, r := range results {
		out.Sources[r.payload.Category()] = r.source
		switch p := r.payload.(type) {
		case SchedulePayload:
			out.Schedule = p.Value
		case WeeklyThemePayload:
			out.WeeklyTheme = p.Value
		case EventsPayload:
			out.Events = p.Value
		case TrendPayload:
			out.Trend = p.Value
		case TonePayload:
			out.Tone = p.Value
		case TemplatePayload:
			out.Template = p.Value
		case PromptRulesPayload:
			out.PromptRules = p.Value
		}
	}
	return out
}

// Defaults 는 저장된 값이 하나도 없을 때의 집계 결과다.
func Defaults(identity string) AggregatedSettings {
	sources := make(map[models.Category]Source, len(models.AllCategories))
	for _, c := range models.AllCategories {
		sources[c] = SourceDefaultMissing
	}
	return AggregatedSettings{
		Identity:         identity,
		Schedule:         models.DefaultScheduleSettings(),
		WeeklyTheme:      models.DefaultWeeklyThemeSettings(),
		Events:           models.DefaultEventSettings(),
		Trend:            models.DefaultTrendSettings(),
		Tone:             models.DefaultToneSettings(),
		Template:         models.DefaultTemplateSettings(),
		PromptRules:      models.DefaultPromptRules(),
		RecentActivities: []models.Activity{},
		Sources:          sources,
	}
}

func (a *Aggregator) fetchCategory(ctx context.Context, identity string, category models.Category) categoryResult {
	raw, err := a.store.Get(ctx, identity, category)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordSettingsDefault(string(category), string(SourceDefaultMissing))
		return categoryResult{payload: DefaultPayload(category), source: SourceDefaultMissing}
	}
	if err != nil {
		config.Logger.Warnf("failed to fetch %s settings for %s, using default: %v", category, identity, err)
		metrics.RecordSettingsDefault(string(category), string(SourceDefaultError))
		return categoryResult{payload: DefaultPayload(category), source: SourceDefaultError}
	}

	payload, err := DecodePayload(category, raw)
	if err != nil {
		config.Logger.Warnf("failed to decode %s settings for %s, using default: %v", category, identity, err)
		metrics.RecordSettingsDefault(string(category), string(SourceDefaultError))
		return categoryResult{payload: DefaultPayload(category), source: SourceDefaultError}
	}
	return categoryResult{payload: payload, source: SourceStored}
}

func (a *Aggregator) fetchPersona(ctx context.Context, identity string) *models.Persona {
	if a.personas == nil {
		return nil
	}
	p, err := a.personas.FindPersona(ctx, identity)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		config.Logger.Warnf("failed to fetch persona for %s: %v", identity, err)
		return nil
	}
	return p
}

// fetchActivities 는 최근 window 안의 비어 있지 않은 활동을 최신순으로 최대 limit 건 반환한다.
func (a *Aggregator) fetchActivities(ctx context.Context, identity string) []models.Activity {
	out := []models.Activity{}
	if a.activities == nil {
		return out
	}
	since := a.now().Add(-a.activityWindow)
	items, err := a.activities.RecentActivities(ctx, identity, since, a.activityLimit)
	if err != nil {
		config.Logger.Warnf("failed to fetch recent activities for %s: %v", identity, err)
		return out
	}

	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" || item.CreatedAt.Before(since) {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > a.activityLimit {
		out = out[:a.activityLimit]
	}
	return out
}
