package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"autopost/models"
	"autopost/settings"
)

// 2026-10-19 은 월요일이다.
var monday = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

var artifacts = []string{"%!", "<nil>", "map[", "{{", "}}", "[]"}

func assertNoArtifacts(t *testing.T, p Prompt) {
	t.Helper()
	for _, a := range artifacts {
		assert.NotContains(t, p.System, a)
		assert.NotContains(t, p.User, a)
	}
}

func fullSettings() settings.AggregatedSettings {
	s := settings.Defaults("user-001")
	s.Events = models.EventSettings{Events: []models.CustomEvent{
		{Name: "ハロウィン準備", Date: "2026-10-19", Description: "ハロウィンの飾り付けを始める日", Enabled: true},
	}}
	s.Trend = models.TrendSettings{EnabledSources: []string{"google"}, MixRatio: 60, MixStyle: models.MixStyleHashtag, ExcludedCategories: []string{}}
	s.Template = models.TemplateSettings{Enabled: []string{"tips", "question"}, Priorities: map[string]int{"tips": 2, "question": 1}}
	s.PromptRules = models.PromptRules{
		NGWords:          []string{"絶対", "必ず"},
		PreferredPhrases: []string{"なるほど"},
		AdditionalRules:  "ハッシュタグは2つまで",
		CustomPrompt:     "最後に一言で締めること",
		CreativityLevel:  0.8,
	}
	s.Persona = &models.Persona{
		Summary: "朝型のエンジニア",
		Traits:  []models.PersonaTrait{{Trait: "前向き", Confidence: 0.92}},
	}
	s.RecentActivities = []models.Activity{
		{Text: "朝ランニングで5km走った", CreatedAt: monday.Add(-2 * time.Hour)},
	}
	return s
}

func TestComposeWithEverySection(t *testing.T) {
	trends := []models.TrendItem{
		{Keyword: "紅葉", Rank: 1, Category: "季節", Source: "google"},
		{Keyword: "新型スマホ", Rank: 2, Source: "google"},
	}

	p := Compose(Input{Settings: fullSettings(), Trends: trends, Now: monday, MaxLength: 140})

	assert.Contains(t, p.System, ToneDescription(models.DefaultToneSettings())+"で書いてください。")
	assert.Contains(t, p.System, "前向き（confidence: 0.92）")
	assert.Contains(t, p.System, templateStructures["question"])
	assert.Contains(t, p.System, "創造性レベル: 80%（独創的")
	assert.Contains(t, p.System, "次の言葉は絶対に使わないでください: 絶対、必ず")
	assert.Contains(t, p.System, "なるほど")
	assert.Contains(t, p.System, "ハッシュタグは2つまで")
	assert.Contains(t, p.System, "最後に一言で締めること")
	assert.Contains(t, p.System, "140文字以内")
	assert.NotContains(t, p.System, noRecentActivities)

	assert.Contains(t, p.User, "今日は2026-10-19（月曜日）です。")
	assert.Contains(t, p.User, "今日のテーマ: "+models.DefaultWeeklyThemeSettings().Monday)
	assert.Contains(t, p.User, "## 今日のイベント\n- ハロウィンの飾り付けを始める日")
	assert.Contains(t, p.User, "## 最近の出来事\n1. 朝ランニングで5km走った")
	assert.Contains(t, p.User, "## 注目のトレンド\n- 紅葉（季節）\n- 新型スマホ")
	assert.Contains(t, p.User, MixStyleGuide(models.MixStyleHashtag))
	assert.Contains(t, p.User, MixRatioGuide(60))

	assert.Equal(t, "question", p.Context.TemplateID)
	assert.Equal(t, "月曜日", p.Context.DayOfWeek)
	assert.Equal(t, 1, p.Context.RecentActivityCount)
	assert.True(t, p.Context.HasPersona)
	assert.Equal(t, 80, p.Context.CreativityPercent)
	assert.Equal(t, trends, p.Context.Trends)
	assertNoArtifacts(t, p)
}

func TestComposeOmitsEmptySections(t *testing.T) {
	p := Compose(Input{Settings: settings.Defaults("user-001"), Now: monday})

	assert.NotContains(t, p.User, "## 今日のイベント")
	assert.NotContains(t, p.User, "## 最近の出来事")
	assert.NotContains(t, p.User, "## 注目のトレンド")
	assert.NotContains(t, p.User, "## トレンドの使い方")
	assert.Contains(t, p.System, "## 最近の出来事\n"+noRecentActivities)
	assert.Contains(t, p.System, personaFallback)
	assert.NotContains(t, p.System, "## NGワード")
	assert.NotContains(t, p.System, "## 好んで使うフレーズ")
	assert.NotContains(t, p.System, "## 追加ルール")
	assert.NotContains(t, p.System, "## カスタム指示")
	assert.Contains(t, p.System, templateStructures[models.DefaultTemplateID])
	assert.Contains(t, p.System, "280文字以内")

	assert.Equal(t, models.DefaultTemplateID, p.Context.TemplateID)
	assert.NotNil(t, p.Context.Trends)
	assert.NotNil(t, p.Context.TodayEvents)
	assert.Zero(t, p.Context.RecentActivityCount)
	assertNoArtifacts(t, p)
}

func TestComposeUsesFallbackThemeForEveryDay(t *testing.T) {
	s := settings.Defaults("user-001")
	s.WeeklyTheme = models.WeeklyThemeSettings{}

	for i := 0; i < 7; i++ {
		p := Compose(Input{Settings: s, Now: monday.AddDate(0, 0, i)})
		assert.Equal(t, models.DefaultWeeklyTheme, p.Context.WeeklyTheme)
		assert.Contains(t, p.User, "今日のテーマ: "+models.DefaultWeeklyTheme)
	}
}

func TestComposeDropsBlankTrendKeywords(t *testing.T) {
	s := settings.Defaults("user-001")
	s.Persona = &models.Persona{Traits: []models.PersonaTrait{{Trait: " ", Confidence: 0.9}}}
	trends := []models.TrendItem{
		{Keyword: "  ", Rank: 1, Category: "季節"},
		{Keyword: "紅葉", Rank: 2},
	}

	p := Compose(Input{Settings: s, Trends: trends, Now: monday})

	assert.Equal(t, []models.TrendItem{{Keyword: "紅葉", Rank: 2}}, p.Context.Trends)
	assert.Contains(t, p.User, "## 注目のトレンド\n- 紅葉")
	assert.NotContains(t, p.User, "季節")
	assert.False(t, p.Context.HasPersona)
}

func TestComposeIsDeterministic(t *testing.T) {
	in := Input{Settings: fullSettings(), Trends: []models.TrendItem{{Keyword: "紅葉"}}, Now: monday}
	assert.Equal(t, Compose(in), Compose(in))
}

func TestPromptText(t *testing.T) {
	p := Compose(Input{Settings: settings.Defaults("user-001"), Now: monday})
	text := p.Text()
	assert.True(t, strings.HasPrefix(text, "[system]\n"+p.System))
	assert.True(t, strings.HasSuffix(text, "[user]\n"+p.User))
}
