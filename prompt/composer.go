// Package prompt 는 집계된 사용자 설정과 트렌드로 생성 모델에 보낼 지시문을 만든다.
// 모든 함수는 I/O 가 없고, 같은 입력(현재 시각 포함)에 대해 같은 결과를 낸다.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"autopost/models"
	"autopost/settings"
)

// DefaultMaxLength 는 게시글의 최대 글자 수(rune)다.
const DefaultMaxLength = 280

// Input 은 Compose 의 입력이다. Now 는 오늘 날짜와 요일 계산에 쓰인다.
type Input struct {
	Settings  settings.AggregatedSettings
	Trends    []models.TrendItem
	Now       time.Time
	MaxLength int
}

// Context 는 지시문을 만들 때 선택된 값들이다. 미리보기 응답과 로그에 사용한다.
type Context struct {
	Identity            string             `json:"identity"`
	Date                string             `json:"date"`
	DayOfWeek           string             `json:"day_of_week"`
	WeeklyTheme         string             `json:"weekly_theme"`
	TodayEvents         []string           `json:"today_events"`
	TemplateID          string             `json:"template_id"`
	TemplateStructure   string             `json:"template_structure"`
	ToneDescription     string             `json:"tone_description"`
	Trends              []models.TrendItem `json:"trends"`
	MixStyle            models.MixStyle    `json:"mix_style"`
	MixRatio            int                `json:"mix_ratio"`
	HasPersona          bool               `json:"has_persona"`
	RecentActivityCount int                `json:"recent_activity_count"`
	CreativityPercent   int                `json:"creativity_percent"`
	MaxLength           int                `json:"max_length"`
}

type Prompt struct {
	System  string  `json:"system"`
	User    string  `json:"user"`
	Context Context `json:"context"`
}

// Text 는 감사용으로 게시 기록에 남기는 전체 프롬프트다.
func (p Prompt) Text() string {
	return "[system]\n" + p.System + "\n\n[user]\n" + p.User
}

func Compose(in Input) Prompt {
	s := in.Settings
	maxLength := in.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	templateID := SelectTemplate(s.Template)
	activityText, activityCount := RecentActivityContext(s.RecentActivities)
	hasActivity := activityCount > 0
	trends := usableTrends(in.Trends)

	ctx := Context{
		Identity:            s.Identity,
		Date:                in.Now.Format("2006-01-02"),
		DayOfWeek:           weekdayName(in.Now.Weekday()),
		WeeklyTheme:         s.WeeklyTheme.ThemeFor(in.Now.Weekday()),
		TodayEvents:         TodayEvents(s.Events, in.Now),
		TemplateID:          templateID,
		TemplateStructure:   TemplateStructure(templateID),
		ToneDescription:     ToneDescription(s.Tone),
		Trends:              trends,
		MixStyle:            s.Trend.MixStyle,
		MixRatio:            s.Trend.MixRatio,
		HasPersona:          len(personaTraits(s.Persona)) > 0,
		RecentActivityCount: activityCount,
		CreativityPercent:   CreativityPercent(s.PromptRules.CreativityLevel),
		MaxLength:           maxLength,
	}
	return Prompt{
		System:  composeSystem(s, ctx, activityText, hasActivity),
		User:    composeUser(ctx, activityText, hasActivity, TrendList(trends)),
		Context: ctx,
	}
}

func composeSystem(s settings.AggregatedSettings, ctx Context, activityText string, hasActivity bool) string {
	var b strings.Builder
	b.WriteString("あなたはユーザー本人になりきって、X（旧Twitter）に投稿する文章を作成するアシスタントです。\n")
	b.WriteString("以下の設定に従って、投稿文を1件だけ作成してください。")

	writeSection(&b, "文体", ctx.ToneDescription+"で書いてください。")
	writeSection(&b, "ユーザーのペルソナ", PersonaContext(s.Persona))
	if !hasActivity {
		writeSection(&b, "最近の出来事", activityText)
	}
	writeSection(&b, "投稿の構成", ctx.TemplateStructure+"構成にしてください。")
	writeSection(&b, "創造性", CreativityDescription(s.PromptRules.CreativityLevel))

	rules := s.PromptRules
	if words := nonEmpty(rules.NGWords); len(words) > 0 {
		writeSection(&b, "NGワード", "次の言葉は絶対に使わないでください: "+strings.Join(words, listSeparator))
	}
	if phrases := nonEmpty(rules.PreferredPhrases); len(phrases) > 0 {
		writeSection(&b, "好んで使うフレーズ", "可能であれば次のフレーズを取り入れてください: "+strings.Join(phrases, listSeparator))
	}
	if extra := strings.TrimSpace(rules.AdditionalRules); extra != "" {
		writeSection(&b, "追加ルール", extra)
	}
	if custom := strings.TrimSpace(rules.CustomPrompt); custom != "" {
		writeSection(&b, "カスタム指示", custom)
	}

	writeSection(&b, "出力ルール", strings.Join([]string{
		fmt.Sprintf("- 投稿文は%d文字以内にしてください。", ctx.MaxLength),
		"- 投稿文のみを出力し、前置きや説明、引用符は付けないでください。",
		"- 同じ内容の繰り返しは避けてください。",
	}, "\n"))
	return b.String()
}

func composeUser(ctx Context, activityText string, hasActivity bool, trendList string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "今日は%s（%s）です。\n", ctx.Date, ctx.DayOfWeek)
	fmt.Fprintf(&b, "今日のテーマ: %s", ctx.WeeklyTheme)

	if len(ctx.TodayEvents) > 0 {
		lines := make([]string, len(ctx.TodayEvents))
		for i, e := range ctx.TodayEvents {
			lines[i] = "- " + e
		}
		writeSection(&b, "今日のイベント", strings.Join(lines, "\n"))
	}
	if hasActivity {
		writeSection(&b, "最近の出来事", activityText+"\n必要に応じて、これらの出来事に自然に触れてください。")
	}
	if trendList != "" {
		writeSection(&b, "注目のトレンド", trendList)
		writeSection(&b, "トレンドの使い方", MixStyleGuide(ctx.MixStyle)+"\n"+MixRatioGuide(ctx.MixRatio))
	}

	b.WriteString("\n\n上記を踏まえて、今日の投稿文を作成してください。")
	return b.String()
}

func writeSection(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "\n\n## %s\n%s", title, body)
}
