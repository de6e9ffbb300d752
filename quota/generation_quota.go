package quota

import (
	"context"
	"sync"
	"time"

	"autopost/config"
)

// GenerationQuotaLimiter 는 본문 생성용 LLM 호출의 분당 간격과 일일 한도를 관리한다.
// 프로세스 하나를 전제로 인메모리로 동작하며 재시작하면 카운터가 초기화된다.
type GenerationQuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now func() time.Time
}

// NewGenerationQuotaLimiter 는 0 이하의 값을 해당 방향의 제한 없음으로 취급한다.
func NewGenerationQuotaLimiter(q config.GenerationQuota) *GenerationQuotaLimiter {
	requestsPerDay := max(q.RequestsPerDay, 0)
	requestsPerMinute := max(q.RequestsPerMinute, 0)

	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}

	return &GenerationQuotaLimiter{
		dailyLimit: requestsPerDay,
		interval:   interval,
		now:        time.Now,
	}
}

// WaitAndReserve 는 생성 호출 전에 한도를 적용한다.
// 일일 한도를 초과하면 (false, nil) 을 반환하고 호출자는 LLM 호출을 건너뛰어야 한다.
// 컨텍스트가 취소되면 (false, err) 를 반환한다.
func (l *GenerationQuotaLimiter) WaitAndReserve(ctx context.Context) (bool, error) {
	for {
		l.mu.Lock()

		now := l.now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		// 락을 풀고 기다린 뒤 상태를 다시 평가한다.
		l.mu.Unlock()
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		}
	}
}
