package models

import "time"

// PostStatus 는 게시 기록의 상태다. pending -> processing -> completed|failed 순으로만 이동한다.
type PostStatus string

const (
	PostStatusPending    PostStatus = "pending"
	PostStatusProcessing PostStatus = "processing"
	PostStatusCompleted  PostStatus = "completed"
	PostStatusFailed     PostStatus = "failed"
)

// IsTerminal 은 더 이상 전이할 수 없는 상태인지 알려 준다.
func (s PostStatus) IsTerminal() bool {
	return s == PostStatusCompleted || s == PostStatusFailed
}

// CanTransitionTo 는 s -> next 가 앞으로의 전이인지 알려 준다.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	switch s {
	case "":
		return next == PostStatusPending
	case PostStatusPending:
		return next == PostStatusProcessing || next == PostStatusFailed
	case PostStatusProcessing:
		return next == PostStatusCompleted || next == PostStatusFailed
	default:
		return false
	}
}

// Trigger 는 생성 요청이 들어온 경로다.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerCLI       Trigger = "cli"
)

// PostLog 는 생성-게시 1회 시도의 수명주기 기록이다.
// (identity, post_id) 로 유일하며 상태가 바뀔 때마다 같은 문서에 upsert 된다.
// Collection: post_logs
type PostLog struct {
	Identity       string      `bson:"identity" json:"identity"`
	PostID         string      `bson:"post_id" json:"post_id"`
	Status         PostStatus  `bson:"status" json:"status"`
	Trigger        Trigger     `bson:"trigger" json:"trigger"`
	Content        string      `bson:"content" json:"content"`
	ExternalPostID string      `bson:"external_post_id,omitempty" json:"external_post_id,omitempty"`
	Prompt         string      `bson:"prompt" json:"prompt"`
	TrendSnapshot  []TrendItem `bson:"trend_snapshot" json:"trend_snapshot"`
	Success        bool        `bson:"success" json:"success"`
	Error          string      `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt      time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `bson:"updated_at" json:"updated_at"`
}
