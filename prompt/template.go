package prompt

import (
	"math"
	"strings"

	"autopost/models"
)

// templateStructures 는 템플릿 ID 별 구성 설명이다. 목록에 없는 ID 는 default 로 처리한다.
var templateStructures = map[string]string{
	models.DefaultTemplateID: "自由な構成で、伝えたいことを1つに絞って簡潔にまとめる",
	"question":               "冒頭で読者に問いかけ、自分の考えを述べ、最後に意見を求める",
	"tips":                   "役立つポイントを2〜3個の箇条書きで紹介し、一言のまとめで締める",
	"story":                  "具体的なエピソードから始め、そこから得た気づきや学びにつなげる",
	"news":                   "話題のニュースやトレンドを紹介し、自分なりの見解を添える",
	"list":                   "テーマに沿ったおすすめを番号付きリストで紹介する",
	"morning":                "朝の挨拶から始め、今日の目標や意気込みを伝える",
}

// SelectTemplate 는 활성화된 템플릿 중 priority 가 가장 작은 것을 고른다.
// 동률이면 설정 배열의 앞쪽이 우선이며, priority 가 없는 ID 는 가장 뒤로 간다.
func SelectTemplate(ts models.TemplateSettings) string {
	selected := ""
	best := math.MaxInt
	for _, id := range ts.Enabled {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		priority, ok := ts.Priorities[id]
		if !ok {
			priority = math.MaxInt
		}
		if selected == "" || priority < best {
			selected, best = id, priority
		}
	}
	if selected == "" {
		return models.DefaultTemplateID
	}
	return selected
}

// TemplateStructure 는 id 의 구조 설명을 반환한다.
func TemplateStructure(id string) string {
	if s, ok := templateStructures[id]; ok {
		return s
	}
	return templateStructures[models.DefaultTemplateID]
}
