package handlers

import (
	"context"

	"autopost/config"
	"autopost/eventbus"
	"autopost/events"
	"autopost/models"
	"autopost/services"
	"autopost/trace"
)

type PostGenerator interface {
	GenerateAndPost(ctx context.Context, req services.Request) (*services.Result, error)
}

// GenerationHandler 는 예약 생성 요청 이벤트를 처리한다.
type GenerationHandler struct {
	svc PostGenerator
}

func NewGenerationHandler(svc PostGenerator) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// Handle 은 eventbus.EventHandler 다. 다른 타입의 이벤트는 무시하고 커밋한다.
// 게시 기록이 남은 실행은 failed 여도 nil 을 반환한다. 같은 요청을 재시도하면 게시가 중복될 수 있다.
func (h *GenerationHandler) Handle(ctx context.Context, evt eventbus.Event) error {
	if events.EventType(evt.Type) != events.PostGenerationRequested {
		return nil
	}

	req, err := eventbus.DecodeJSON[events.GenerationRequestedEvent](evt)
	if err != nil {
		config.Logger.Errorf("invalid %s payload in event %s: %v", evt.Type, evt.ID, err)
		return err
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = models.TriggerScheduled
	}

	ctx = trace.WithRequest(ctx, evt.ID)
	res, err := h.svc.GenerateAndPost(ctx, services.Request{Identity: req.Identity, Trigger: trigger})
	if err != nil {
		config.Logger.Errorf("failed to handle generation request %s: %v", evt.ID, err)
		return err
	}

	config.InfoWithFields("generation request handled", config.Fields{
		"event_id":    evt.ID,
		"post_id":     res.PostID,
		"identity":    res.Identity,
		"status":      string(res.Status),
		"success":     res.Success,
		"external_id": res.ExternalID,
		"content":     res.Content,
		"error":       res.Error,
	})
	return nil
}
