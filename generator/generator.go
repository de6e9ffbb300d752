// Package generator 는 게시글 본문을 만드는 텍스트 생성 클라이언트다.
package generator

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrEmptyResponse 는 응답 자체가 없을 때의 오류다. 빈 본문은 오류가 아니며 호출자가 검증한다.
var ErrEmptyResponse = errors.New("generator: empty response")

type Options struct {
	Model       string
	MaxTokens   int32
	Temperature float32
}

type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Generation 은 한 번의 생성 결과다. Text 는 Clean 을 거친 게시글 본문이다.
type Generation struct {
	Text         string
	Raw          string
	ModelName    string
	ModelVersion string
	Usage        TokenUsage
	Latency      time.Duration
}

type Generator interface {
	Generate(ctx context.Context, system, user string, opts Options) (*Generation, error)
}

var quotePairs = [][2]string{
	{"「", "」"},
	{"『", "』"},
	{"\"", "\""},
	{"“", "”"},
}

// Clean 은 앞뒤 공백과, 본문 전체를 감싼 따옴표 한 쌍을 제거한다.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	for _, q := range quotePairs {
		if len(text) > len(q[0])+len(q[1]) && strings.HasPrefix(text, q[0]) && strings.HasSuffix(text, q[1]) {
			inner := text[len(q[0]) : len(text)-len(q[1])]
			// 본문 안에 같은 따옴표가 또 있으면 인용 일부이므로 그대로 둔다.
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return text
}
