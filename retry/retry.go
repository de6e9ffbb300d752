// Package retry 는 외부 호출(생성, 게시)에 쓰는 재시도 정책이다.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"autopost/config"
	"autopost/metrics"
)

// Policy 는 최대 시도 횟수와 시도 사이 대기 시간이다.
// Backoff 가 true 면 대기 시간은 Delay, 2*Delay, 4*Delay ... 로 늘어난다.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool
}

// Generation 은 생성 호출용 정책이다 (3회, base 부터 2배씩 증가).
func Generation(base time.Duration) Policy {
	return Policy{MaxAttempts: 3, Delay: base, Backoff: true}
}

// Posting 은 게시 호출용 정책이다 (2회, 고정 대기).
func Posting(delay time.Duration) Policy {
	return Policy{MaxAttempts: 2, Delay: delay}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 로 감싼 오류는 다시 시도하지 않는다. Do 는 감싸기 전의 오류를 반환한다.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do 는 op 를 정책에 따라 실행하고 결과 또는 마지막 시도의 오류를 반환한다.
// ctx 가 취소되면 대기 중인 재시도를 중단하고 ctx 의 오류를 반환한다.
func Do[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	builder := retrypolicy.NewBuilder[T]().
		WithMaxAttempts(attempts).
		ReturnLastFailure().
		AbortOnErrors(context.Canceled, context.DeadlineExceeded).
		AbortIf(func(_ T, err error) bool {
			var perm *permanentError
			return errors.As(err, &perm)
		}).
		OnRetry(func(e failsafe.ExecutionEvent[T]) {
			config.Logger.Warnf("%s attempt %d failed, retrying: %v", name, e.Attempts(), e.LastError())
		})

	if p.Delay > 0 {
		if p.Backoff && attempts > 1 {
			builder = builder.WithBackoff(p.Delay, p.Delay<<(attempts-2))
		} else {
			builder = builder.WithDelay(p.Delay)
		}
	}

	result, err := failsafe.With[T](builder.Build()).WithContext(ctx).Get(func() (T, error) {
		v, err := op(ctx)
		metrics.RecordAttempt(name, err)
		return v, err
	})

	var perm *permanentError
	if errors.As(err, &perm) {
		err = perm.err
	}
	return result, err
}
