package models

import (
	"strings"
	"time"
)

// Category 는 사용자 설정 묶음의 종류다. (identity, category) 로 저장된다.
type Category string

const (
	CategorySchedule    Category = "schedule"
	CategoryWeeklyTheme Category = "weekly_theme"
	CategoryEvents      Category = "events"
	CategoryTrend       Category = "trend"
	CategoryTone        Category = "tone"
	CategoryTemplate    Category = "template"
	CategoryPromptRules Category = "prompt_rules"
)

// AllCategories 는 집계 대상 카테고리 목록이다.
var AllCategories = []Category{
	CategorySchedule,
	CategoryWeeklyTheme,
	CategoryEvents,
	CategoryTrend,
	CategoryTone,
	CategoryTemplate,
	CategoryPromptRules,
}

// ParseCategory 는 s 에 해당하는 카테고리를 반환한다. 알 수 없으면 false 다.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == strings.ToLower(strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// ScheduleSettings 는 예약 게시 시간대 설정이다. 스케줄러 자체는 이 모듈 밖에 있다.
type ScheduleSettings struct {
	Enabled     bool     `json:"enabled" bson:"enabled"`
	Times       []string `json:"times" bson:"times"`
	Timezone    string   `json:"timezone" bson:"timezone"`
	PostsPerDay int      `json:"posts_per_day" bson:"posts_per_day"`
}

func DefaultScheduleSettings() ScheduleSettings {
	return ScheduleSettings{
		Enabled:     false,
		Times:       []string{"09:00", "12:00", "18:00"},
		Timezone:    "Asia/Tokyo",
		PostsPerDay: 3,
	}
}

// DefaultWeeklyTheme 는 요일 테마가 비어 있을 때 사용하는 고정 문구다.
const DefaultWeeklyTheme = "自由テーマ"

// WeeklyThemeSettings 는 요일별 테마다.
type WeeklyThemeSettings struct {
	Sunday    string `json:"sunday" bson:"sunday"`
	Monday    string `json:"monday" bson:"monday"`
	Tuesday   string `json:"tuesday" bson:"tuesday"`
	Wednesday string `json:"wednesday" bson:"wednesday"`
	Thursday  string `json:"thursday" bson:"thursday"`
	Friday    string `json:"friday" bson:"friday"`
	Saturday  string `json:"saturday" bson:"saturday"`
}

func DefaultWeeklyThemeSettings() WeeklyThemeSettings {
	return WeeklyThemeSettings{
		Sunday:    "週末の振り返り",
		Monday:    "週の始まりのモチベーション",
		Tuesday:   "仕事や学びのTips",
		Wednesday: "日常の気づき",
		Thursday:  "おすすめの情報",
		Friday:    "一週間のまとめ",
		Saturday:  "趣味や休日の過ごし方",
	}
}

// ThemeFor 는 요일 테마를 반환한다. 비어 있으면 DefaultWeeklyTheme 을 반환한다.
func (w WeeklyThemeSettings) ThemeFor(day time.Weekday) string {
	var theme string
	switch day {
	case time.Sunday:
		theme = w.Sunday
	case time.Monday:
		theme = w.Monday
	case time.Tuesday:
		theme = w.Tuesday
	case time.Wednesday:
		theme = w.Wednesday
	case time.Thursday:
		theme = w.Thursday
	case time.Friday:
		theme = w.Friday
	case time.Saturday:
		theme = w.Saturday
	}
	if strings.TrimSpace(theme) == "" {
		return DefaultWeeklyTheme
	}
	return theme
}

// CustomEvent 는 사용자가 등록한 기념일/이벤트다.
type CustomEvent struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Date        string `json:"date" bson:"date"` // YYYY-MM-DD
	Description string `json:"description" bson:"description"`
	Enabled     bool   `json:"enabled" bson:"enabled"`
}

type EventSettings struct {
	Events []CustomEvent `json:"events" bson:"events"`
}

func DefaultEventSettings() EventSettings {
	return EventSettings{Events: []CustomEvent{}}
}

// 트렌드 소스. 선언 순서가 곧 혼합 순서다.
const (
	TrendSourceGoogle = "google"
	TrendSourceYahoo  = "yahoo"
)

// MixStyle 은 트렌드 키워드를 본문에 섞는 방식이다.
type MixStyle string

const (
	MixStyleNatural MixStyle = "natural"
	MixStyleHashtag MixStyle = "hashtag"
	MixStyleTopic   MixStyle = "topic"
	MixStyleSubtle  MixStyle = "subtle"
)

type TrendSettings struct {
	EnabledSources     []string `json:"enabled_sources" bson:"enabled_sources"`
	MixRatio           int      `json:"mix_ratio" bson:"mix_ratio"`
	MixStyle           MixStyle `json:"mix_style" bson:"mix_style"`
	ExcludedCategories []string `json:"excluded_categories" bson:"excluded_categories"`
}

func DefaultTrendSettings() TrendSettings {
	return TrendSettings{
		EnabledSources:     []string{},
		MixRatio:           0,
		MixStyle:           MixStyleNatural,
		ExcludedCategories: []string{},
	}
}

// ToneSettings 는 0~100 범위의 7개 다이얼이다. 다이얼 간 제약은 없다.
type ToneSettings struct {
	Politeness    int `json:"politeness" bson:"politeness"`
	Casualness    int `json:"casualness" bson:"casualness"`
	Positivity    int `json:"positivity" bson:"positivity"`
	Expertise     int `json:"expertise" bson:"expertise"`
	EmotionLevel  int `json:"emotion_level" bson:"emotion_level"`
	MetaphorUsage int `json:"metaphor_usage" bson:"metaphor_usage"`
	EmojiUsage    int `json:"emoji_usage" bson:"emoji_usage"`
}

func DefaultToneSettings() ToneSettings {
	return ToneSettings{
		Politeness:    70,
		Casualness:    50,
		Positivity:    70,
		Expertise:     50,
		EmotionLevel:  50,
		MetaphorUsage: 30,
		EmojiUsage:    30,
	}
}

// Clamped 는 모든 값을 [0,100] 으로 자른 사본을 반환한다.
func (t ToneSettings) Clamped() ToneSettings {
	return ToneSettings{
		Politeness:    clampPercent(t.Politeness),
		Casualness:    clampPercent(t.Casualness),
		Positivity:    clampPercent(t.Positivity),
		Expertise:     clampPercent(t.Expertise),
		EmotionLevel:  clampPercent(t.EmotionLevel),
		MetaphorUsage: clampPercent(t.MetaphorUsage),
		EmojiUsage:    clampPercent(t.EmojiUsage),
	}
}

// DefaultTemplateID 는 활성화된 템플릿이 없을 때 선택되는 템플릿이다.
const DefaultTemplateID = "default"

// TemplateSettings 는 활성화된 템플릿 ID 와 우선순위(작을수록 우선)다.
type TemplateSettings struct {
	Enabled    []string       `json:"enabled" bson:"enabled"`
	Priorities map[string]int `json:"priorities" bson:"priorities"`
}

func DefaultTemplateSettings() TemplateSettings {
	return TemplateSettings{
		Enabled:    []string{},
		Priorities: map[string]int{},
	}
}

// PromptRules 는 자유 형식 프롬프트 규칙이다.
type PromptRules struct {
	NGWords          []string `json:"ng_words" bson:"ng_words"`
	PreferredPhrases []string `json:"preferred_phrases" bson:"preferred_phrases"`
	AdditionalRules  string   `json:"additional_rules" bson:"additional_rules"`
	CustomPrompt     string   `json:"custom_prompt" bson:"custom_prompt"`
	// CreativityLevel 은 0~1 범위다.
	CreativityLevel float64 `json:"creativity_level" bson:"creativity_level"`
}

func DefaultPromptRules() PromptRules {
	return PromptRules{
		NGWords:          []string{},
		PreferredPhrases: []string{},
		CreativityLevel:  0.5,
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
