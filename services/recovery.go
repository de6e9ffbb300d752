package services

import (
	"context"
	"time"

	"autopost/config"
	"autopost/metrics"
	"autopost/models"
)

// abandonedReason 는 복구로 종료된 기록에 남기는 사유다.
const abandonedReason = "run abandoned before reaching a terminal status"

type StalePostLogStore interface {
	FindStale(ctx context.Context, before time.Time, limit int) ([]models.PostLog, error)
	MarkFailed(ctx context.Context, identity, postID, reason string) (bool, error)
}

// RecoveryService 는 프로세스 중단 등으로 pending/processing 에 남은 기록을 failed 로 정리한다.
type RecoveryService struct {
	logs  StalePostLogStore
	after time.Duration
	now   func() time.Time
}

// NewRecoveryService 는 after 보다 오래 갱신되지 않은 미완료 기록을 대상으로 한다.
func NewRecoveryService(logs StalePostLogStore, after time.Duration) *RecoveryService {
	if after <= 0 {
		after = 30 * time.Minute
	}
	return &RecoveryService{logs: logs, after: after, now: time.Now}
}

// RecoverStale 은 정리한 기록 수를 반환한다. 기록 하나의 실패는 건너뛴다.
func (s *RecoveryService) RecoverStale(ctx context.Context, limit int) (int, error) {
	stale, err := s.logs.FindStale(ctx, s.now().Add(-s.after), limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, p := range stale {
		changed, err := s.logs.MarkFailed(ctx, p.Identity, p.PostID, abandonedReason)
		if err != nil {
			config.Logger.Errorf("failed to recover post %s: %v", p.PostID, err)
			continue
		}
		if !changed {
			continue
		}
		recovered++
		metrics.RecordRun(string(models.PostStatusFailed), string(p.Trigger))
		config.Logger.Warnf("recovered post %s stuck in %s since %s", p.PostID, p.Status, p.UpdatedAt.Format(time.RFC3339))
	}
	return recovered, nil
}
