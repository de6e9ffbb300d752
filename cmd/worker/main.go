package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"autopost/cmd/internal/app"
	"autopost/cmd/worker/handlers"
	"autopost/config"
	"autopost/eventbus"
	"autopost/services"
)

const (
	// staleAfter 동안 갱신되지 않은 미완료 기록은 중단된 실행으로 본다.
	staleAfter       = 30 * time.Minute
	recoveryInterval = 10 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		config.Logger.Errorf("failed to start worker: %v", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	if a.Bus == nil {
		config.Logger.Error("KAFKA_BOOTSTRAP_SERVERS environment variable is required for the worker")
		os.Exit(1)
	}
	groupID, err := eventbus.GetGroupID()
	if err != nil {
		config.Logger.Errorf("failed to read consumer group: %v", err)
		os.Exit(1)
	}

	topic := eventbus.TopicFor(a.Config.EventBus.Topic)
	brokers, _ := eventbus.GetBrokers()
	if err := eventbus.EnsureTopics(ctx, brokers, topic, a.Config.EventBus.Partitions); err != nil {
		config.Logger.Errorf("failed to ensure eventbus topics: %v", err)
	}

	handler := handlers.NewGenerationHandler(a.Service)
	recovery := services.NewRecoveryService(a.PostLogs, staleAfter)

	config.Logger.Info("starting worker...")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		runRecovery(ctx, recovery)
	}()
	go func() {
		defer wg.Done()
		if err := a.Bus.Subscribe(ctx, groupID, topic, handler.Handle); err != nil && !errors.Is(err, context.Canceled) {
			config.Logger.Errorf("eventbus subscribe error: %v", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		if err := a.Bus.StartRetryReinjector(ctx, groupID+"-retry", topic); err != nil && !errors.Is(err, context.Canceled) {
			config.Logger.Errorf("eventbus retry reinjector error: %v", err)
		}
	}()

	<-ctx.Done()
	config.Logger.Info("received shutdown signal, shutting down worker...")
	wg.Wait()
	config.Logger.Info("worker stopped")
}

// runRecovery 는 시작 시 한 번, 이후 recoveryInterval 마다 중단된 실행을 정리한다.
func runRecovery(ctx context.Context, svc *services.RecoveryService) {
	ticker := time.NewTicker(recoveryInterval)
	defer ticker.Stop()
	for {
		if n, err := svc.RecoverStale(ctx, 100); err != nil {
			config.Logger.Errorf("failed to recover stale posts: %v", err)
		} else if n > 0 {
			config.Logger.Infof("recovered %d stale posts", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
