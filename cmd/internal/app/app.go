// Package app 은 api, worker, postgen 이 공유하는 의존성 조립 코드다.
package app

import (
	"context"
	"fmt"
	"os"

	"autopost/config"
	"autopost/db"
	"autopost/eventbus"
	"autopost/generator"
	"autopost/poster"
	"autopost/quota"
	"autopost/repositories"
	"autopost/services"
	"autopost/settings"
	"autopost/trends"
)

// App 은 Mongo 저장소와 생성 서비스를 묶은 것이다.
type App struct {
	Config     config.AppConfig
	Settings   *repositories.SettingRepository
	Personas   *repositories.PersonaRepository
	Activities *repositories.ActivityRepository
	PostLogs   *repositories.PostLogRepository
	Service    *services.PostGenerationService
	// Bus 는 Kafka 가 설정되지 않았으면 nil 이다.
	Bus eventbus.EventBus
}

// OpenStores 는 Mongo 저장소만 연결한다. 생성 서비스가 필요 없는 명령(설정 입력 등)에서 쓴다.
func OpenStores(ctx context.Context) (*App, error) {
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)

	if err := db.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize mongodb: %w", err)
	}
	database := db.Database()

	return &App{
		Config:     cfg,
		Settings:   repositories.NewSettingRepository(database),
		Personas:   repositories.NewPersonaRepository(database),
		Activities: repositories.NewActivityRepository(database),
		PostLogs:   repositories.NewPostLogRepository(database),
	}, nil
}

// New 는 config.yaml 과 환경변수로 전체 의존성을 만든다.
func New(ctx context.Context) (_ *App, err error) {
	a, err := OpenStores(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			a.Close(context.WithoutCancel(ctx))
		}
	}()
	cfg := a.Config

	bus, err := NewEventBusFromEnv()
	if err != nil {
		return nil, err
	}
	a.Bus = bus

	gen, err := generator.NewGeminiGenerator(ctx, cfg.Generation, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	deps := services.Dependencies{
		Settings: settings.NewAggregator(a.Settings, a.Personas, a.Activities,
			settings.WithActivityWindow(cfg.Activity.Window),
			settings.WithActivityLimit(cfg.Activity.Limit),
		),
		Trends:    NewMixer(cfg.Trends),
		Generator: gen,
		PostLogs:  a.PostLogs,
		AILogs:    repositories.NewAILogRepository(db.Database()),
		Quota:     quota.NewGenerationQuotaLimiter(cfg.GenerationQuota),
	}
	if cfg.Posting.Enabled {
		x, err := poster.NewXClient(cfg.Posting)
		if err != nil {
			return nil, fmt.Errorf("failed to create poster: %w", err)
		}
		deps.Poster = x
	}
	if bus != nil {
		deps.Events = bus
	}

	svc, err := services.NewPostGenerationService(deps, services.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	a.Service = svc
	return a, nil
}

// NewMixer 는 설정된 피드 순서대로 트렌드 제공자를 만든다.
func NewMixer(cfg config.TrendsConfig) *trends.Mixer {
	providers := make([]trends.Provider, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		providers = append(providers, trends.NewFeedProvider(s.Name, s.FeedURL, cfg.Timeout))
	}
	return trends.NewMixer(cfg.PageSize, providers...)
}

// NewEventBusFromEnv 는 KAFKA_BOOTSTRAP_SERVERS 가 있을 때만 Kafka 버스를 만든다.
func NewEventBusFromEnv() (eventbus.EventBus, error) {
	if os.Getenv("KAFKA_BOOTSTRAP_SERVERS") == "" {
		return nil, nil
	}
	brokers, err := eventbus.GetBrokers()
	if err != nil {
		return nil, err
	}
	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// Close 는 이벤트 버스와 Mongo 연결을 정리한다.
func (a *App) Close(ctx context.Context) {
	if a.Bus != nil {
		a.Bus.Close()
	}
	if err := db.Disconnect(ctx); err != nil {
		config.Logger.Errorf("failed to disconnect mongodb: %v", err)
	}
}
