// Package poster 는 생성된 본문을 외부 SNS 에 게시하는 클라이언트다.
package poster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrTextTooLong 은 본문이 게시 가능한 최대 길이를 넘을 때의 오류다. 다시 시도해도 결과는 같다.
var ErrTextTooLong = errors.New("poster: text exceeds maximum length")

type PostResult struct {
	ExternalID string `json:"external_id"`
	Text       string `json:"text"`
}

type Poster interface {
	Post(ctx context.Context, text string) (*PostResult, error)
	// MaxLength 는 게시 가능한 최대 글자 수(rune)다.
	MaxLength() int
}

// HTTPError 는 게시 API 가 2xx 이외의 상태를 반환했을 때의 오류다.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("poster: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Temporary 는 다시 시도할 가치가 있는 상태인지 알려준다 (429, 5xx).
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsPermanent 는 재시도해도 결과가 바뀌지 않는 오류인지 판단한다.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrTextTooLong) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return !httpErr.Temporary()
	}
	return false
}
