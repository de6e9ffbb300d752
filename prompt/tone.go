package prompt

import (
	"strings"

	"autopost/models"
)

const (
	toneSeparator = "、"
	toneSuffix    = "文体"
)

// ToneDescription 는 7개의 톤 다이얼을 하나의 문장으로 바꾼다.
// 각 다이얼은 구간별로 정확히 하나의 표현을 가지며, 비유 사용이 40 미만이면 생략된다.
func ToneDescription(t models.ToneSettings) string {
	t = t.Clamped()
	fragments := []string{
		politenessFragment(t.Politeness, t.Casualness),
		positivityFragment(t.Positivity),
		expertiseFragment(t.Expertise),
		emotionFragment(t.EmotionLevel),
		metaphorFragment(t.MetaphorUsage),
		emojiFragment(t.EmojiUsage),
	}

	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, toneSeparator) + toneSuffix
}

func politenessFragment(politeness, casualness int) string {
	switch {
	case politeness >= 80:
		return "丁寧な敬語を使った"
	case politeness >= 60:
		return "適度に丁寧な"
	case politeness >= 40:
		if casualness >= 60 {
			return "親しみやすいフレンドリーな"
		}
		return "くだけすぎない丁寧語の"
	default:
		if casualness >= 60 {
			return "友達に話すようなカジュアルな"
		}
		return "簡潔でくだけた"
	}
}

func positivityFragment(v int) string {
	switch {
	case v >= 90:
		return "とても明るく前向きな"
	case v >= 70:
		return "前向きな"
	case v >= 50:
		return "バランスの取れた"
	case v >= 30:
		return "落ち着いた冷静な"
	default:
		return "率直で批評的な"
	}
}

func expertiseFragment(v int) string {
	switch {
	case v >= 80:
		return "専門用語を積極的に使った専門性の高い"
	case v >= 60:
		return "ある程度専門的な"
	case v >= 40:
		return "誰にでもわかりやすい"
	default:
		return "専門用語を避けたやさしい"
	}
}

func emotionFragment(v int) string {
	switch {
	case v >= 80:
		return "感情豊かな"
	case v >= 60:
		return "気持ちのこもった"
	case v >= 40:
		return "適度に感情を表した"
	default:
		return "淡々とした"
	}
}

// metaphorFragment 는 40 미만이면 빈 문자열을 반환한다.
func metaphorFragment(v int) string {
	switch {
	case v >= 70:
		return "比喩や例えを多用した"
	case v >= 40:
		return "時々比喩を交えた"
	default:
		return ""
	}
}

func emojiFragment(v int) string {
	switch {
	case v >= 70:
		return "絵文字をたくさん使った"
	case v >= 40:
		return "絵文字を適度に使った"
	case v >= 20:
		return "絵文字を控えめに使った"
	default:
		return "絵文字を使わない"
	}
}
