// Package events 는 이벤트 버스로 오가는 생성 요청과 결과 페이로드를 정의한다.
package events

import (
	"time"

	"autopost/models"
)

type EventType string

const (
	// PostGenerationRequested 는 예약 실행이 worker 에게 생성을 요청할 때 발행된다.
	PostGenerationRequested EventType = "post.generation_requested"
	// PostGenerated 는 한 번의 실행이 completed 또는 failed 에 도달하면 발행된다.
	PostGenerated EventType = "post.generated"
)

// GenerationRequestedEvent 는 예약 생성 요청이다. Identity 가 비어 있으면 기본 identity 를 쓴다.
type GenerationRequestedEvent struct {
	Identity    string         `json:"identity,omitempty"`
	Trigger     models.Trigger `json:"trigger"`
	RequestedAt time.Time      `json:"requested_at"`
}

// PostGeneratedEvent 는 실행 결과 알림이다.
type PostGeneratedEvent struct {
	PostID      string            `json:"post_id"`
	Identity    string            `json:"identity"`
	Status      models.PostStatus `json:"status"`
	Success     bool              `json:"success"`
	ExternalID  string            `json:"external_id,omitempty"`
	Content     string            `json:"content,omitempty"`
	Error       string            `json:"error,omitempty"`
	Trigger     models.Trigger    `json:"trigger"`
	GeneratedAt time.Time         `json:"generated_at"`
}
