package trends

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"autopost/config"
	"autopost/metrics"
	"autopost/models"
)

const (
	// DefaultPageSize 는 소스별로 요청하는 트렌드 개수다.
	DefaultPageSize = 5
	// maxMixedTrends 는 mix ratio 100 일 때의 최대 개수다. 소스 수와 무관하게 고정이다.
	maxMixedTrends = 10
)

// Mixer 는 활성화된 소스의 트렌드를 합치고 제외 카테고리와 mix ratio 를 적용한다.
// 소스 하나의 실패는 빈 목록으로 처리하며 Mix 는 실패하지 않는다.
type Mixer struct {
	providers []Provider
	pageSize  int
}

// NewMixer 는 providers 의 순서를 그대로 출력 순서로 쓴다.
func NewMixer(pageSize int, providers ...Provider) *Mixer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Mixer{providers: providers, pageSize: pageSize}
}

// TargetCount 는 floor(mixRatio/100*10) 이다.
func TargetCount(mixRatio int) int {
	if mixRatio <= 0 {
		return 0
	}
	if mixRatio > 100 {
		mixRatio = 100
	}
	return mixRatio * maxMixedTrends / 100
}

func (m *Mixer) Mix(ctx context.Context, ts models.TrendSettings) []models.TrendItem {
	out := []models.TrendItem{}
	target := TargetCount(ts.MixRatio)
	if target == 0 {
		return out
	}

	enabled := make(map[string]bool, len(ts.EnabledSources))
	for _, s := range ts.EnabledSources {
		enabled[strings.ToLower(strings.TrimSpace(s))] = true
	}
	for name := range enabled {
		if !m.hasProvider(name) {
			config.Logger.Warnf("unknown trend source %q is ignored", name)
		}
	}

	pages := make([][]models.TrendItem, len(m.providers))
	var g errgroup.Group
	for i, p := range m.providers {
		if !enabled[strings.ToLower(p.Name())] {
			continue
		}
		g.Go(func() error {
			items, err := p.Fetch(ctx, m.pageSize)
			if err != nil {
				config.Logger.Warnf("failed to fetch trends from %s: %v", p.Name(), err)
				metrics.RecordTrendSourceFailure(p.Name())
				return nil
			}
			if len(items) > m.pageSize {
				items = items[:m.pageSize]
			}
			pages[i] = items
			return nil
		})
	}
	_ = g.Wait()

	excluded := make(map[string]bool, len(ts.ExcludedCategories))
	for _, c := range ts.ExcludedCategories {
		excluded[strings.ToLower(strings.TrimSpace(c))] = true
	}

	for _, page := range pages {
		for _, item := range page {
			if strings.TrimSpace(item.Keyword) == "" {
				continue
			}
			if item.Category != "" && excluded[strings.ToLower(strings.TrimSpace(item.Category))] {
				continue
			}
			out = append(out, item)
		}
	}

	if len(out) > target {
		out = out[:target]
	}
	return out
}

func (m *Mixer) hasProvider(name string) bool {
	for _, p := range m.providers {
		if strings.ToLower(p.Name()) == name {
			return true
		}
	}
	return false
}
