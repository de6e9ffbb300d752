package settings

import (
	"context"
	"errors"
	"time"

	"autopost/models"
)

// ErrNotFound 는 저장소에 해당 키가 없을 때 반환된다. 집계 단계에서는 오류가 아니다.
var ErrNotFound = errors.New("settings: not found")

// Store 는 (identity, category) 키의 설정 저장소다. payload 는 JSON 이다.
type Store interface {
	Get(ctx context.Context, identity string, category models.Category) ([]byte, error)
	Put(ctx context.Context, identity string, category models.Category, payload []byte) error
}

// PersonaStore 는 페르소나가 아직 없으면 ErrNotFound 를 반환한다.
type PersonaStore interface {
	FindPersona(ctx context.Context, identity string) (*models.Persona, error)
}

// ActivityStore 는 since 이후의 최근 활동을 최신순으로 최대 limit 건 반환한다.
type ActivityStore interface {
	RecentActivities(ctx context.Context, identity string, since time.Time, limit int) ([]models.Activity, error)
}
