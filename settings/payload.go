package settings

import (
	"encoding/json"
	"fmt"
	"math"

	"autopost/models"
)

// Payload 는 카테고리별 설정 값의 tagged union 이다.
// 저장소의 JSON 은 DecodePayload 에서 한 번만 해석되고, 이후에는 타입이 있는 값만 다룬다.
type Payload interface {
	Category() models.Category
}

type SchedulePayload struct{ Value models.ScheduleSettings }
type WeeklyThemePayload struct{ Value models.WeeklyThemeSettings }
type EventsPayload struct{ Value models.EventSettings }
type TrendPayload struct{ Value models.TrendSettings }
type TonePayload struct{ Value models.ToneSettings }
type TemplatePayload struct{ Value models.TemplateSettings }
type PromptRulesPayload struct{ Value models.PromptRules }

func (SchedulePayload) Category() models.Category    { return models.CategorySchedule }
func (WeeklyThemePayload) Category() models.Category { return models.CategoryWeeklyTheme }
func (EventsPayload) Category() models.Category      { return models.CategoryEvents }
func (TrendPayload) Category() models.Category       { return models.CategoryTrend }
func (TonePayload) Category() models.Category        { return models.CategoryTone }
func (TemplatePayload) Category() models.Category    { return models.CategoryTemplate }
func (PromptRulesPayload) Category() models.Category { return models.CategoryPromptRules }

// DefaultPayload 는 category 의 고정 기본값을 반환한다.
func DefaultPayload(category models.Category) Payload {
	switch category {
	case models.CategorySchedule:
		return SchedulePayload{Value: models.DefaultScheduleSettings()}
	case models.CategoryWeeklyTheme:
		return WeeklyThemePayload{Value: models.DefaultWeeklyThemeSettings()}
	case models.CategoryEvents:
		return EventsPayload{Value: models.DefaultEventSettings()}
	case models.CategoryTrend:
		return TrendPayload{Value: models.DefaultTrendSettings()}
	case models.CategoryTone:
		return TonePayload{Value: models.DefaultToneSettings()}
	case models.CategoryTemplate:
		return TemplatePayload{Value: models.DefaultTemplateSettings()}
	case models.CategoryPromptRules:
		return PromptRulesPayload{Value: models.DefaultPromptRules()}
	default:
		return nil
	}
}

// DecodePayload 는 JSON 을 카테고리 타입으로 해석한다.
// 기본값 위에 덮어쓰므로 누락된 필드는 기본값을 유지하고, 결과는 정규화된다.
func DecodePayload(category models.Category, raw []byte) (Payload, error) {
	var err error
	switch category {
	case models.CategorySchedule:
		v := models.DefaultScheduleSettings()
		if err = json.Unmarshal(raw, &v); err == nil {
			return SchedulePayload{Value: normalizeSchedule(v)}, nil
		}
	case models.CategoryWeeklyTheme:
		v := models.DefaultWeeklyThemeSettings()
		if err = json.Unmarshal(raw, &v); err == nil {
			return WeeklyThemePayload{Value: v}, nil
		}
	case models.CategoryEvents:
		v := models.DefaultEventSettings()
		if err = json.Unmarshal(raw, &v); err == nil {
			return EventsPayload{Value: normalizeEvents(v)}, nil
		}
	case models.CategoryTrend:
		v := models.DefaultTrendSettings()
		if err = json.Unmarshal(raw, &v); err == nil {
			return TrendPayload{Value: normalizeTrend(v)}, nil
		}
	case models.CategoryTone:
		v := models.DefaultToneSettings()
		if err = json.Unmarshal(raw, &v); err == nil {
			return TonePayload{Value: v.Clamped()}, nil
		}
	case models.CategoryTemplate:
		v := models.DefaultTemplateSettings()
		if err = json.Unmarshal(raw, &v); err == nil {
			return TemplatePayload{Value: normalizeTemplate(v)}, nil
		}
	case models.CategoryPromptRules:
		v := models.DefaultPromptRules()
		if err = json.Unmarshal(raw, &v); err == nil {
			return PromptRulesPayload{Value: normalizePromptRules(v)}, nil
		}
	default:
		return nil, fmt.Errorf("unknown settings category: %q", category)
	}
	return nil, fmt.Errorf("malformed %s payload: %w", category, err)
}

func normalizeSchedule(v models.ScheduleSettings) models.ScheduleSettings {
	if v.Times == nil {
		v.Times = []string{}
	}
	return v
}

func normalizeEvents(v models.EventSettings) models.EventSettings {
	if v.Events == nil {
		v.Events = []models.CustomEvent{}
	}
	return v
}

func normalizeTrend(v models.TrendSettings) models.TrendSettings {
	if v.EnabledSources == nil {
		v.EnabledSources = []string{}
	}
	if v.ExcludedCategories == nil {
		v.ExcludedCategories = []string{}
	}
	if v.MixRatio < 0 {
		v.MixRatio = 0
	}
	if v.MixRatio > 100 {
		v.MixRatio = 100
	}
	switch v.MixStyle {
	case models.MixStyleNatural, models.MixStyleHashtag, models.MixStyleTopic, models.MixStyleSubtle:
	default:
		v.MixStyle = models.MixStyleNatural
	}
	return v
}

func normalizeTemplate(v models.TemplateSettings) models.TemplateSettings {
	if v.Enabled == nil {
		v.Enabled = []string{}
	}
	if v.Priorities == nil {
		v.Priorities = map[string]int{}
	}
	return v
}

func normalizePromptRules(v models.PromptRules) models.PromptRules {
	if v.NGWords == nil {
		v.NGWords = []string{}
	}
	if v.PreferredPhrases == nil {
		v.PreferredPhrases = []string{}
	}
	if math.IsNaN(v.CreativityLevel) || v.CreativityLevel < 0 {
		v.CreativityLevel = 0
	}
	if v.CreativityLevel > 1 {
		v.CreativityLevel = 1
	}
	return v
}
