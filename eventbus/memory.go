package eventbus

import (
	"context"
	"sync"
)

// MemoryEventBus 는 프로세스 안에서만 동작하는 EventBus 다. 테스트와 Kafka 없는 로컬 실행에 쓴다.
// 핸들러가 실패하면 재시도 토픽 대신 바로 같은 토픽으로 다시 전달하고, 한도를 넘으면 DLQ 에 쌓는다.
type MemoryEventBus struct {
	mu       sync.Mutex
	closed   bool
	messages map[string][]Event
	subs     map[string][]chan Event
}

func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{
		messages: make(map[string][]Event),
		subs:     make(map[string][]chan Event),
	}
}

func (m *MemoryEventBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return context.Canceled
	}
	m.messages[topic] = append(m.messages[topic], event)
	for _, ch := range m.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Messages 는 topic 에 발행된 이벤트의 복사본을 반환한다.
func (m *MemoryEventBus) Messages(topic string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.messages[topic]))
	copy(out, m.messages[topic])
	return out
}

func (m *MemoryEventBus) Subscribe(ctx context.Context, _ string, topic Topic, handler EventHandler) error {
	ch := make(chan Event, 64)
	m.mu.Lock()
	for _, evt := range m.messages[topic.Base()] {
		select {
		case ch <- evt:
		default:
		}
	}
	m.subs[topic.Base()] = append(m.subs[topic.Base()], ch)
	m.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-ch:
			if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
				evt.MaxRetry = len(RetryDelays)
			}
			err := handler(ctx, evt)
			if err == nil {
				continue
			}
			evt.LastError = err.Error()
			if evt.Retry+1 > evt.MaxRetry {
				_ = m.Publish(context.WithoutCancel(ctx), topic.DLQ(), evt)
				continue
			}
			evt.Retry++
			_ = m.Publish(context.WithoutCancel(ctx), topic.Base(), evt)
		}
	}
}

// StartRetryReinjector 는 메모리 버스에서 할 일이 없다. ctx 가 끝날 때까지 대기한다.
func (m *MemoryEventBus) StartRetryReinjector(ctx context.Context, _ string, _ Topic) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *MemoryEventBus) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
