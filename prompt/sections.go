package prompt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"autopost/models"
)

const (
	maxPersonaTraits   = 5
	maxPersonaTopics   = 3
	maxRecentItems     = 3
	maxActivityRunes   = 100
	ellipsisMarker     = "..."
	listSeparator      = "、"
	personaFallback    = "ペルソナ情報はまだありません。自然で親しみやすい一般的な口調で書いてください。"
	personaClosing     = "これらの特徴を自然に反映し、本人らしさが伝わる投稿にしてください。"
	noRecentActivities = "最近の出来事の記録はありません。テーマやトレンドを中心に書いてください。"
)

// PersonaContext 는 페르소나를 시스템 지시문용 텍스트로 바꾼다.
// 페르소나가 없거나 이름 있는 trait 가 없으면 고정 문장을 반환한다.
func PersonaContext(p *models.Persona) string {
	traits := personaTraits(p)
	if len(traits) == 0 {
		return personaFallback
	}

	var b strings.Builder
	b.WriteString("特徴:\n")
	for _, t := range traits {
		fmt.Fprintf(&b, "- %s（confidence: %s）\n", t.Trait, formatScore(t.Confidence))
	}

	if summary := strings.TrimSpace(p.Summary); summary != "" {
		fmt.Fprintf(&b, "要約: %s\n", summary)
	}
	if s := p.SpeakingStyle; s != nil {
		fmt.Fprintf(&b, "話し方: 丁寧さ %s / 親しみやすさ %s / ユーモア %s / 熱量 %s\n",
			formatScore(s.Formality), formatScore(s.Friendliness), formatScore(s.Humor), formatScore(s.Enthusiasm))
	}
	if topics := nonEmpty(p.CommonTopics); len(topics) > 0 {
		if len(topics) > maxPersonaTopics {
			topics = topics[:maxPersonaTopics]
		}
		fmt.Fprintf(&b, "よく話す話題: %s\n", strings.Join(topics, listSeparator))
	}
	b.WriteString(personaClosing)
	return b.String()
}

// RecentActivityContext 는 최근 활동을 번호 목록으로 바꾸고 나열한 개수를 함께 반환한다.
// 개수가 0 이면 텍스트는 고정 문장이다. activities 는 최신순이어야 한다.
func RecentActivityContext(activities []models.Activity) (text string, count int) {
	var lines []string
	for _, a := range activities {
		body := strings.Join(strings.Fields(a.Text), " ")
		if body == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", len(lines)+1, truncateRunes(body, maxActivityRunes)))
		if len(lines) == maxRecentItems {
			break
		}
	}
	if len(lines) == 0 {
		return noRecentActivities, 0
	}
	return strings.Join(lines, "\n"), len(lines)
}

// TodayEvents 는 오늘 날짜의 활성 이벤트 설명을 설정 순서대로 반환한다.
func TodayEvents(es models.EventSettings, now time.Time) []string {
	today := now.Format("2006-01-02")
	out := []string{}
	for _, e := range es.Events {
		if !e.Enabled || strings.TrimSpace(e.Date) != today {
			continue
		}
		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			desc = strings.TrimSpace(e.Name)
		}
		if desc != "" {
			out = append(out, desc)
		}
	}
	return out
}

var mixStyleGuides = map[models.MixStyle]string{
	models.MixStyleNatural: "トレンドのキーワードは文脈に自然に溶け込ませてください。",
	models.MixStyleHashtag: "トレンドのキーワードはハッシュタグとして文末に添えてください。",
	models.MixStyleTopic:   "トレンドのキーワードを投稿の主題として取り上げてください。",
	models.MixStyleSubtle:  "トレンドのキーワードにはさりげなく触れる程度にしてください。",
}

// MixStyleGuide 는 mix style 별 안내 문장이다. 알 수 없는 값은 natural 로 취급한다.
func MixStyleGuide(style models.MixStyle) string {
	if g, ok := mixStyleGuides[style]; ok {
		return g
	}
	return mixStyleGuides[models.MixStyleNatural]
}

// MixRatioGuide 는 mix ratio 를 4개 구간(≤20, 21–50, 51–80, >80)의 안내 문장으로 바꾼다.
func MixRatioGuide(ratio int) string {
	switch {
	case ratio <= 20:
		return "トレンドはあくまで補足程度に留め、今日のテーマを優先してください。"
	case ratio <= 50:
		return "今日のテーマを中心にしつつ、トレンドを1つ程度取り入れてください。"
	case ratio <= 80:
		return "トレンドを積極的に取り入れ、今日のテーマと結び付けてください。"
	default:
		return "トレンドを投稿の中心に据えてください。"
	}
}

// TrendList 는 트렌드마다 한 줄을 만들고, 카테고리가 있으면 괄호로 붙인다.
func TrendList(items []models.TrendItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		keyword := strings.TrimSpace(item.Keyword)
		if keyword == "" {
			continue
		}
		if c := strings.TrimSpace(item.Category); c != "" {
			lines = append(lines, fmt.Sprintf("- %s（%s）", keyword, c))
		} else {
			lines = append(lines, "- "+keyword)
		}
	}
	return strings.Join(lines, "\n")
}

// CreativityPercent 는 0~1 값을 반올림한 백분율로 바꾼다.
func CreativityPercent(level float64) int {
	if math.IsNaN(level) || level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return int(math.Round(level * 100))
}

// CreativityDescription 는 "創造性レベル: 50%（バランス: ...）" 형태의 문장이다.
func CreativityDescription(level float64) string {
	pct := CreativityPercent(level)
	var label string
	switch {
	case pct <= 30:
		label = "堅実: 定番の表現を優先し、わかりやすさを重視してください"
	case pct <= 70:
		label = "バランス: 定番の表現と新しい切り口を両立させてください"
	default:
		label = "独創的: 意外性のある表現や切り口を積極的に取り入れてください"
	}
	return fmt.Sprintf("創造性レベル: %d%%（%s）", pct, label)
}

var weekdayNames = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

func weekdayName(d time.Weekday) string {
	return weekdayNames[int(d)%len(weekdayNames)]
}

// formatScore 는 입력 정밀도를 그대로 유지한다 (0.85 -> "0.85", 0.9 -> "0.9").
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + ellipsisMarker
}

// personaTraits 는 이름이 빈 trait 를 건너뛰고 앞에서부터 최대 maxPersonaTraits 개를 고른다.
func personaTraits(p *models.Persona) []models.PersonaTrait {
	if p == nil {
		return nil
	}
	out := make([]models.PersonaTrait, 0, maxPersonaTraits)
	for _, t := range p.Traits {
		if len(out) == maxPersonaTraits {
			break
		}
		if t.Trait = strings.TrimSpace(t.Trait); t.Trait != "" {
			out = append(out, t)
		}
	}
	return out
}

// usableTrends 는 키워드가 빈 항목을 뺀 목록이다. 결과는 nil 이 아니다.
func usableTrends(items []models.TrendItem) []models.TrendItem {
	out := make([]models.TrendItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Keyword) != "" {
			out = append(out, item)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
