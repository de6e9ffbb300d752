package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopost/models"
)

func TestPersonaContextFallback(t *testing.T) {
	assert.Equal(t, personaFallback, PersonaContext(nil))
	assert.Equal(t, personaFallback, PersonaContext(&models.Persona{Summary: "明るい人", Traits: []models.PersonaTrait{}}))
}

func TestPersonaContextSurfacesFirstFiveTraits(t *testing.T) {
	p := &models.Persona{
		Summary: "技術とコーヒーが好きなエンジニア",
		Traits: []models.PersonaTrait{
			{Trait: "好奇心旺盛", Confidence: 0.9},
			{Trait: "論理的", Confidence: 0.85},
			{Trait: "ユーモアがある", Confidence: 0.123},
			{Trait: "丁寧", Confidence: 1},
			{Trait: "前向き", Confidence: 0.5},
			{Trait: "心配性", Confidence: 0.77},
		},
		CommonTopics:  []string{"Go", "コーヒー", "読書", "旅行"},
		SpeakingStyle: &models.SpeakingStyle{Formality: 0.6, Friendliness: 0.8, Humor: 0.35, Enthusiasm: 0.7},
	}

	got := PersonaContext(p)

	want := []string{
		"好奇心旺盛（confidence: 0.9）",
		"論理的（confidence: 0.85）",
		"ユーモアがある（confidence: 0.123）",
		"丁寧（confidence: 1）",
		"前向き（confidence: 0.5）",
	}
	last := -1
	for _, w := range want {
		idx := strings.Index(got, w)
		require.GreaterOrEqual(t, idx, 0, "missing %q", w)
		assert.Greater(t, idx, last, "%q out of order", w)
		last = idx
	}
	assert.NotContains(t, got, "心配性")
	assert.Contains(t, got, "要約: 技術とコーヒーが好きなエンジニア")
	assert.Contains(t, got, "丁寧さ 0.6 / 親しみやすさ 0.8 / ユーモア 0.35 / 熱量 0.7")
	assert.Contains(t, got, "よく話す話題: Go、コーヒー、読書")
	assert.NotContains(t, got, "旅行")
	assert.True(t, strings.HasSuffix(got, personaClosing))
}

func TestPersonaContextSkipsBlankTraits(t *testing.T) {
	p := &models.Persona{Traits: []models.PersonaTrait{
		{Trait: "  ", Confidence: 0.9},
		{Trait: "穏やか", Confidence: 0.7},
		{Trait: "", Confidence: 0.6},
		{Trait: "几帳面", Confidence: 0.65},
		{Trait: "前向き", Confidence: 0.5},
		{Trait: "論理的", Confidence: 0.4},
		{Trait: "丁寧", Confidence: 0.3},
		{Trait: "心配性", Confidence: 0.2},
	}}

	got := PersonaContext(p)

	assert.NotContains(t, got, "- （confidence")
	assert.NotContains(t, got, "0.9")
	assert.Contains(t, got, "丁寧（confidence: 0.3）")
	assert.NotContains(t, got, "心配性")

	blank := &models.Persona{Traits: []models.PersonaTrait{{Trait: " ", Confidence: 1}}}
	assert.Equal(t, personaFallback, PersonaContext(blank))
}

func TestPersonaContextWithoutOptionalParts(t *testing.T) {
	got := PersonaContext(&models.Persona{Traits: []models.PersonaTrait{{Trait: "穏やか", Confidence: 0.7}}})

	assert.Contains(t, got, "穏やか（confidence: 0.7）")
	assert.NotContains(t, got, "要約")
	assert.NotContains(t, got, "話し方")
	assert.NotContains(t, got, "よく話す話題")
}

func TestRecentActivityContext(t *testing.T) {
	long := strings.Repeat("あ", 150)
	items := []models.Activity{
		{Text: "新しいカフェに行った"},
		{Text: long},
		{Text: "Go のテストを書いた"},
		{Text: "4件目"},
		{Text: "5件目"},
	}

	text, count := RecentActivityContext(items)

	assert.Equal(t, 3, count)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1. 新しいカフェに行った", lines[0])
	assert.Equal(t, "2. "+strings.Repeat("あ", 100)+"...", lines[1])
	assert.Equal(t, "3. Go のテストを書いた", lines[2])
	assert.NotContains(t, text, "4件目")
}

func TestRecentActivityContextExactlyAtLimitIsNotTruncated(t *testing.T) {
	exact := strings.Repeat("い", 100)
	text, count := RecentActivityContext([]models.Activity{{Text: exact}})
	assert.Equal(t, 1, count)
	assert.Equal(t, "1. "+exact, text)
}

func TestRecentActivityContextNone(t *testing.T) {
	text, count := RecentActivityContext(nil)
	assert.Zero(t, count)
	assert.Equal(t, noRecentActivities, text)

	text, count = RecentActivityContext([]models.Activity{{Text: "  "}, {Text: "\n"}})
	assert.Zero(t, count)
	assert.Equal(t, noRecentActivities, text)
}

func TestTodayEvents(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	es := models.EventSettings{Events: []models.CustomEvent{
		{Name: "創業記念日", Date: "2026-10-19", Description: "会社の創業10周年", Enabled: true},
		{Name: "無効", Date: "2026-10-19", Description: "表示されない", Enabled: false},
		{Name: "明日", Date: "2026-10-20", Description: "明日のイベント", Enabled: true},
		{Name: "読書の日", Date: "2026-10-19", Enabled: true},
	}}

	assert.Equal(t, []string{"会社の創業10周年", "読書の日"}, TodayEvents(es, now))
	assert.Empty(t, TodayEvents(models.DefaultEventSettings(), now))
}

func TestMixGuides(t *testing.T) {
	for _, style := range []models.MixStyle{models.MixStyleNatural, models.MixStyleHashtag, models.MixStyleTopic, models.MixStyleSubtle} {
		assert.NotEmpty(t, MixStyleGuide(style), string(style))
	}
	assert.Equal(t, MixStyleGuide(models.MixStyleNatural), MixStyleGuide("unknown"))

	assert.Equal(t, MixRatioGuide(0), MixRatioGuide(20))
	assert.NotEqual(t, MixRatioGuide(20), MixRatioGuide(21))
	assert.Equal(t, MixRatioGuide(21), MixRatioGuide(50))
	assert.NotEqual(t, MixRatioGuide(50), MixRatioGuide(51))
	assert.Equal(t, MixRatioGuide(51), MixRatioGuide(80))
	assert.NotEqual(t, MixRatioGuide(80), MixRatioGuide(81))
	assert.Equal(t, MixRatioGuide(81), MixRatioGuide(100))
}

func TestCreativityDescription(t *testing.T) {
	tests := []struct {
		level float64
		want  string
	}{
		{0, "創造性レベル: 0%（堅実"},
		{0.3, "創造性レベル: 30%（堅実"},
		{0.304, "創造性レベル: 30%（堅実"},
		{0.31, "創造性レベル: 31%（バランス"},
		{0.5, "創造性レベル: 50%（バランス"},
		{0.7, "創造性レベル: 70%（バランス"},
		{0.71, "創造性レベル: 71%（独創的"},
		{1, "創造性レベル: 100%（独創的"},
		{2, "創造性レベル: 100%（独創的"},
	}
	for _, tt := range tests {
		assert.True(t, strings.HasPrefix(CreativityDescription(tt.level), tt.want), "level=%v got %q", tt.level, CreativityDescription(tt.level))
	}
}

func TestTrendList(t *testing.T) {
	got := TrendList([]models.TrendItem{
		{Keyword: "大谷翔平", Category: "スポーツ"},
		{Keyword: "紅葉"},
		{Keyword: " "},
	})
	assert.Equal(t, "- 大谷翔平（スポーツ）\n- 紅葉", got)
}
