package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"autopost/config"
	"autopost/eventbus"
	"autopost/events"
	"autopost/generator"
	"autopost/metrics"
	"autopost/models"
	"autopost/poster"
	"autopost/prompt"
	"autopost/retry"
	"autopost/settings"
)

var (
	ErrMissingIdentity  = errors.New("services: identity is required")
	ErrInvalidContent   = errors.New("services: invalid generated content")
	ErrGenerationFailed = errors.New("services: generation failed")
	ErrPostingFailed    = errors.New("services: posting failed")
	ErrQuotaExceeded    = errors.New("services: generation quota exceeded")
)

// terminalWriteTimeout 는 호출자가 취소된 뒤에도 종료 상태를 기록하기 위해 쓰는 시간이다.
const terminalWriteTimeout = 5 * time.Second

type SettingsAggregator interface {
	Aggregate(ctx context.Context, identity string) settings.AggregatedSettings
}

type TrendMixer interface {
	Mix(ctx context.Context, ts models.TrendSettings) []models.TrendItem
}

// PostLogStore 는 (identity, post_id) 단위로 게시 기록을 upsert 한다.
type PostLogStore interface {
	Upsert(ctx context.Context, p *models.PostLog) error
}

type AILogStore interface {
	Insert(ctx context.Context, log models.AILog) error
}

type QuotaLimiter interface {
	WaitAndReserve(ctx context.Context) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event eventbus.Event) error
}

// Dependencies 는 오케스트레이터가 사용하는 협력자다. AILogs, Quota, Events, Trends 는 nil 일 수 있다.
type Dependencies struct {
	Settings  SettingsAggregator
	Trends    TrendMixer
	Generator generator.Generator
	Poster    poster.Poster
	PostLogs  PostLogStore
	AILogs    AILogStore
	Quota     QuotaLimiter
	Events    EventPublisher
}

type Options struct {
	DefaultIdentity  string
	Generation       generator.Options
	GenerationPolicy retry.Policy
	PostingPolicy    retry.Policy
	PostingEnabled   bool
	// MaxLength 는 생성 본문의 최대 글자 수(rune)다.
	MaxLength   int
	ResultTopic string
	Now         func() time.Time
}

// OptionsFromConfig 는 애플리케이션 설정으로 Options 를 만든다.
func OptionsFromConfig(cfg config.AppConfig) Options {
	genPolicy := retry.Generation(cfg.Generation.BaseDelay)
	genPolicy.MaxAttempts = cfg.Generation.MaxAttempts
	postPolicy := retry.Posting(cfg.Posting.Delay)
	postPolicy.MaxAttempts = cfg.Posting.MaxAttempts

	return Options{
		DefaultIdentity: cfg.Identity.Default,
		Generation: generator.Options{
			Model:       cfg.Generation.ModelName,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
		},
		GenerationPolicy: genPolicy,
		PostingPolicy:    postPolicy,
		PostingEnabled:   cfg.Posting.Enabled,
		MaxLength:        cfg.Content.MaxLength,
		ResultTopic:      cfg.EventBus.Topic,
	}
}

type Request struct {
	Identity string         `json:"identity,omitempty"`
	Trigger  models.Trigger `json:"trigger,omitempty"`
}

// Result 는 한 번의 실행 요약이다. 실패도 Result 로 보고되며 Error 에 사유가 담긴다.
type Result struct {
	PostID        string             `json:"post_id"`
	Identity      string             `json:"identity"`
	Content       string             `json:"content"`
	ExternalID    string             `json:"external_id,omitempty"`
	Success       bool               `json:"success"`
	TrendSnapshot []models.TrendItem `json:"trend_snapshot"`
	Status        models.PostStatus  `json:"status"`
	Error         string             `json:"error,omitempty"`

	// Err 는 Error 의 원본 오류다. errors.Is 로 원인을 구분할 때 쓴다.
	Err error `json:"-"`
}

// PostGenerationService 는 설정 집계부터 게시까지 한 번의 실행을 진행하고 게시 기록을 남긴다.
type PostGenerationService struct {
	deps Dependencies
	opts Options
}

func NewPostGenerationService(deps Dependencies, opts Options) (*PostGenerationService, error) {
	if deps.Settings == nil {
		return nil, errors.New("services: settings aggregator is required")
	}
	if deps.Generator == nil {
		return nil, errors.New("services: generator is required")
	}
	if deps.PostLogs == nil {
		return nil, errors.New("services: post log store is required")
	}
	if opts.PostingEnabled && deps.Poster == nil {
		return nil, errors.New("services: poster is required when posting is enabled")
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = prompt.DefaultMaxLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PostGenerationService{deps: deps, opts: opts}, nil
}

// run 은 실행 하나의 가변 상태다. 요청 하나가 독점한다.
type run struct {
	log    *models.PostLog
	prompt prompt.Prompt
}

// GenerateAndPost 는 pending -> processing -> completed|failed 순서로 실행한다.
// 게시 ID 가 만들어진 뒤의 실패는 Result 로 보고되며, error 는 그 이전의 실패에만 반환된다.
func (s *PostGenerationService) GenerateAndPost(ctx context.Context, req Request) (result *Result, err error) {
	identity := s.resolveIdentity(req.Identity)
	if identity == "" {
		return nil, ErrMissingIdentity
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = models.TriggerManual
	}

	now := s.opts.Now()
	r := &run{log: &models.PostLog{
		Identity:      identity,
		PostID:        uuid.NewString(),
		Trigger:       trigger,
		TrendSnapshot: []models.TrendItem{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}}

	defer func() {
		if rec := recover(); rec != nil {
			config.ErrorWithFields("recovered panic during post generation", config.Fields{
				"post_id":  r.log.PostID,
				"identity": identity,
				"panic":    fmt.Sprint(rec),
			})
			result = s.finish(ctx, r, fmt.Errorf("unexpected panic: %v", rec))
			err = nil
		}
	}()

	config.InfoWithFields("post generation started", config.Fields{
		"post_id":  r.log.PostID,
		"identity": identity,
		"trigger":  string(trigger),
	})

	s.transition(ctx, r, models.PostStatusPending)
	s.transition(ctx, r, models.PostStatusProcessing)

	return s.finish(ctx, r, s.execute(ctx, r)), nil
}

// execute 는 집계, 조합, 생성, 검증, 게시를 순서대로 수행한다. 결과는 r.log 에 채워진다.
func (s *PostGenerationService) execute(ctx context.Context, r *run) error {
	p := s.compose(ctx, r.log.Identity)
	r.prompt = p
	r.log.Prompt = p.Text()
	r.log.TrendSnapshot = p.Context.Trends

	content, err := s.generate(ctx, r)
	if err != nil {
		return err
	}
	if err := validateContent(content, s.opts.MaxLength); err != nil {
		r.log.Content = content
		return err
	}
	r.log.Content = content

	if !s.opts.PostingEnabled {
		return fmt.Errorf("%w: posting disabled", ErrPostingFailed)
	}

	externalID, err := s.post(ctx, content)
	if err != nil {
		return err
	}
	r.log.ExternalPostID = externalID
	return nil
}

// compose 가 돌려주는 Prompt.Context.Trends 는 지시문에 실제로 나열된 트렌드다.
func (s *PostGenerationService) compose(ctx context.Context, identity string) prompt.Prompt {
	aggregated := s.deps.Settings.Aggregate(ctx, identity)

	trends := []models.TrendItem{}
	if s.deps.Trends != nil {
		if mixed := s.deps.Trends.Mix(ctx, aggregated.Trend); mixed != nil {
			trends = mixed
		}
	}

	return prompt.Compose(prompt.Input{
		Settings:  aggregated,
		Trends:    trends,
		Now:       s.opts.Now(),
		MaxLength: s.opts.MaxLength,
	})
}

func (s *PostGenerationService) generate(ctx context.Context, r *run) (string, error) {
	if s.deps.Quota != nil {
		allowed, err := s.deps.Quota.WaitAndReserve(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: waiting for quota: %w", ErrGenerationFailed, err)
		}
		if !allowed {
			return "", ErrQuotaExceeded
		}
	}

	attempt := 0
	gen, err := retry.Do(ctx, s.opts.GenerationPolicy, "generation", func(ctx context.Context) (*generator.Generation, error) {
		attempt++
		requestedAt := time.Now()
		g, err := s.deps.Generator.Generate(ctx, r.prompt.System, r.prompt.User, s.opts.Generation)
		if err == nil && g == nil {
			err = generator.ErrEmptyResponse
		}
		s.recordAILog(ctx, r.log, attempt, requestedAt, g, err)
		return g, err
	})
	if err != nil {
		return "", fmt.Errorf("%w after %d attempts: %w", ErrGenerationFailed, attempt, err)
	}
	return strings.TrimSpace(gen.Text), nil
}

func (s *PostGenerationService) post(ctx context.Context, content string) (string, error) {
	res, err := retry.Do(ctx, s.opts.PostingPolicy, "posting", func(ctx context.Context) (*poster.PostResult, error) {
		res, err := s.deps.Poster.Post(ctx, content)
		if err != nil {
			if poster.IsPermanent(err) {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}
		if res == nil || res.ExternalID == "" {
			return nil, errors.New("poster returned no external id")
		}
		return res, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPostingFailed, err)
	}
	return res.ExternalID, nil
}

func validateContent(content string, maxLength int) error {
	if content == "" {
		return fmt.Errorf("%w: content is empty", ErrInvalidContent)
	}
	if n := utf8.RuneCountInString(content); n > maxLength {
		return fmt.Errorf("%w: content has %d characters, limit is %d", ErrInvalidContent, n, maxLength)
	}
	return nil
}

// finish 는 종료 상태를 기록하고 결과 이벤트를 발행한 뒤 Result 를 만든다.
// 호출자의 ctx 가 취소되어도 기록은 시도한다.
func (s *PostGenerationService) finish(ctx context.Context, r *run, cause error) *Result {
	status := models.PostStatusCompleted
	if cause != nil {
		status = models.PostStatusFailed
		r.log.Error = cause.Error()
	}
	r.log.Success = cause == nil

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	s.transition(wctx, r, status)

	result := &Result{
		PostID:        r.log.PostID,
		Identity:      r.log.Identity,
		Content:       r.log.Content,
		ExternalID:    r.log.ExternalPostID,
		Success:       r.log.Success,
		TrendSnapshot: r.log.TrendSnapshot,
		Status:        r.log.Status,
		Error:         r.log.Error,
		Err:           cause,
	}

	metrics.RecordRun(string(result.Status), string(r.log.Trigger))
	fields := config.Fields{
		"post_id":     result.PostID,
		"identity":    result.Identity,
		"status":      string(result.Status),
		"external_id": result.ExternalID,
	}
	if cause != nil {
		fields["error"] = result.Error
		config.ErrorWithFields("post generation failed", fields)
	} else {
		config.InfoWithFields("post generation completed", fields)
	}

	s.publishResult(wctx, r.log)
	return result
}

// transition 은 상태를 앞으로만 옮기고 기록한다. 저장 실패는 실행을 멈추지 않는다.
func (s *PostGenerationService) transition(ctx context.Context, r *run, next models.PostStatus) {
	if !r.log.Status.CanTransitionTo(next) {
		config.Logger.Errorf("invalid status transition %s -> %s for post %s", r.log.Status, next, r.log.PostID)
		return
	}
	r.log.Status = next
	r.log.UpdatedAt = s.opts.Now()
	if err := s.deps.PostLogs.Upsert(ctx, r.log); err != nil {
		config.Logger.Errorf("failed to persist %s status for post %s: %v", next, r.log.PostID, err)
	}
}

func (s *PostGenerationService) recordAILog(ctx context.Context, log *models.PostLog, attempt int, requestedAt time.Time, g *generator.Generation, genErr error) {
	if s.deps.AILogs == nil {
		return
	}
	completedAt := time.Now()
	entry := models.AILog{
		Identity:    log.Identity,
		PostID:      log.PostID,
		Attempt:     attempt,
		ModelName:   s.opts.Generation.Model,
		DurationMs:  completedAt.Sub(requestedAt).Milliseconds(),
		Success:     genErr == nil,
		RequestedAt: requestedAt,
		CompletedAt: completedAt,
	}
	if g != nil {
		if g.ModelName != "" {
			entry.ModelName = g.ModelName
		}
		entry.ModelVersion = g.ModelVersion
		entry.InputTokens = g.Usage.InputTokens
		entry.OutputTokens = g.Usage.OutputTokens
		entry.TotalTokens = g.Usage.TotalTokens
		entry.OutputResponse = g.Raw
	}
	if genErr != nil {
		msg := genErr.Error()
		entry.ErrorMessage = &msg
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	if err := s.deps.AILogs.Insert(wctx, entry); err != nil {
		config.Logger.Warnf("failed to insert ai log for post %s: %v", log.PostID, err)
	}
}

func (s *PostGenerationService) publishResult(ctx context.Context, log *models.PostLog) {
	if s.deps.Events == nil {
		return
	}
	evt, err := eventbus.NewJSONEvent("", string(events.PostGenerated), events.PostGeneratedEvent{
		PostID:      log.PostID,
		Identity:    log.Identity,
		Status:      log.Status,
		Success:     log.Success,
		ExternalID:  log.ExternalPostID,
		Content:     log.Content,
		Error:       log.Error,
		Trigger:     log.Trigger,
		GeneratedAt: log.UpdatedAt,
	}, 0)
	if err != nil {
		config.Logger.Warnf("failed to build %s event: %v", events.PostGenerated, err)
		return
	}
	topic := eventbus.TopicFor(s.opts.ResultTopic).Base()
	if err := s.deps.Events.Publish(ctx, topic, evt); err != nil {
		config.Logger.Warnf("failed to publish %s event for post %s: %v", events.PostGenerated, log.PostID, err)
	}
}

func (s *PostGenerationService) resolveIdentity(identity string) string {
	if v := strings.TrimSpace(identity); v != "" {
		return v
	}
	return strings.TrimSpace(s.opts.DefaultIdentity)
}

// Preview 는 외부 생성/게시 호출 없이 조합된 지시문을 반환한다.
func (s *PostGenerationService) Preview(ctx context.Context, identity string) (*prompt.Prompt, error) {
	identity = s.resolveIdentity(identity)
	if identity == "" {
		return nil, ErrMissingIdentity
	}
	p := s.compose(ctx, identity)
	return &p, nil
}
