package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"autopost/config"
)

// KafkaEventBus 는 confluent-kafka-go 기반 EventBus 구현체다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
}

func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	// 전달 보고서 등 producer 이벤트 처리
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					config.Logger.Errorf("failed to deliver message %v: %v", ev.TopicPartition, ev.TopicPartition.Error)
				}
			case kafka.Error:
				config.Logger.Errorf("kafka error: %v", ev)
			}
		}
	}()

	return &KafkaEventBus{
		Producer: p,
		Brokers:  brokers,
	}, nil
}

// Close 는 남은 메시지를 최대 5초 동안 플러시한 뒤 producer 를 닫는다.
func (k *KafkaEventBus) Close() {
	if k.Producer == nil {
		return
	}
	if remaining := k.Producer.Flush(5000); remaining > 0 {
		config.Logger.Warnf("%d messages remain after flush", remaining)
	}
	k.Producer.Close()
	config.Logger.Info("kafka producer closed")
}

func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver message: %w", m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (k *KafkaEventBus) newConsumer(groupID string) (*kafka.Consumer, error) {
	return kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false, // 재시도 로직을 위해 수동 커밋
		"partition.assignment.strategy": "range",
	})
}

func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	defer c.Close()

	topics := []string{topic.Base()}
	if err := c.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe %v: %w", topics, err)
	}
	config.Logger.Infof("consumer %s started, topics: %s", groupID, strings.Join(topics, ", "))

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("consumer shutting down")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.IsFatal() {
				return fmt.Errorf("fatal consumer error: %w", err)
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			config.Logger.Errorf("invalid event payload on %s, skipping: %v", *msg.TopicPartition.Topic, err)
			_, _ = c.CommitMessage(msg)
			continue
		}
		if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
			evt.MaxRetry = len(RetryDelays)
		}

		if evt.Retry > 0 {
			config.Logger.Infof("handling event %s (retry %d/%d)", evt.ID, evt.Retry, evt.MaxRetry)
		} else {
			config.Logger.Debugf("handling event %s (%s)", evt.ID, evt.Type)
		}

		if err := handler(ctx, evt); err != nil {
			if scheduleErr := k.scheduleRetry(ctx, topic, evt, err); scheduleErr != nil {
				config.Logger.Errorf("%v, offset not committed", scheduleErr)
				continue
			}
		}

		if _, err := c.CommitMessage(msg); err != nil {
			config.Logger.Errorf("failed to commit offset: %v", err)
		}
	}
}

// scheduleRetry 는 실패한 이벤트를 다음 재시도 토픽으로 보내고, 한도를 넘으면 DLQ 로 보낸다.
func (k *KafkaEventBus) scheduleRetry(ctx context.Context, topic Topic, evt Event, cause error) error {
	evt.LastError = cause.Error()
	next := evt.Retry + 1

	target, err := topic.GetRetryTopic(next)
	if next > evt.MaxRetry || errors.Is(err, ErrMaxRetryExceeded) {
		config.Logger.Errorf("event %s exceeded max retry, sending to %s: %v", evt.ID, topic.DLQ(), cause)
		target = topic.DLQ()
	} else if err != nil {
		return fmt.Errorf("%w: %v", ErrRetryScheduleFailed, err)
	} else {
		evt.Retry = next
		config.Logger.Warnf("event %s failed, scheduling retry %d/%d on %s: %v", evt.ID, evt.Retry, evt.MaxRetry, target, cause)
	}

	if err := k.Publish(ctx, target, evt); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRetryScheduleFailed, target, err)
	}
	return nil
}

func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return fmt.Errorf("failed to create retry reinjector: %w", err)
	}
	defer c.Close()

	retryTopics := topic.GetRetryTopics()
	if err := c.SubscribeTopics(retryTopics, nil); err != nil {
		return fmt.Errorf("failed to subscribe retry topics %v: %w", retryTopics, err)
	}
	config.Logger.Infof("retry reinjector %s started, topics: %s", groupID, strings.Join(retryTopics, ", "))

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("retry reinjector shutting down")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					return fmt.Errorf("fatal retry reinjector error: %w", err)
				}
			}
			config.Logger.Errorf("retry reinjector read failed: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		topicName := *msg.TopicPartition.Topic
		delay, ok := ParseRetryFromTopicName(topicName)
		if !ok {
			config.Logger.Errorf("cannot parse retry topic %s, skipping", topicName)
			_, _ = c.CommitMessage(msg)
			continue
		}

		if remaining := time.Until(msg.Timestamp.Add(delay)); remaining > 0 {
			// 컨슈머 루프 전체를 오래 막지 않도록 짧게만 대기하고, 커밋 없이 다시 읽는다.
			time.Sleep(min(max(remaining, 50*time.Millisecond), 500*time.Millisecond))
			if err := c.Seek(kafka.TopicPartition{
				Topic:     msg.TopicPartition.Topic,
				Partition: msg.TopicPartition.Partition,
				Offset:    msg.TopicPartition.Offset,
			}, 1000); err != nil {
				config.Logger.Errorf("failed to seek %s: %v", topicName, err)
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			config.Logger.Errorf("invalid event payload on %s, skipping: %v", topicName, err)
			_, _ = c.CommitMessage(msg)
			continue
		}

		config.Logger.Infof("reinjecting event %s from %s to %s (retry %d)", evt.ID, topicName, topic.Base(), evt.Retry)
		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			config.Logger.Errorf("failed to reinject event %s: %v, offset not committed", evt.ID, err)
			continue
		}
		if _, err := c.CommitMessage(msg); err != nil {
			config.Logger.Errorf("failed to commit offset after reinjection: %v", err)
		}
	}
}
