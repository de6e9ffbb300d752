package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autopost/cmd/api/dto"
	"autopost/config"
	"autopost/models"
	"autopost/prompt"
	"autopost/repositories"
	"autopost/services"
)

// PostGenerator 는 수동 트리거가 사용하는 생성 서비스다.
type PostGenerator interface {
	GenerateAndPost(ctx context.Context, req services.Request) (*services.Result, error)
	Preview(ctx context.Context, identity string) (*prompt.Prompt, error)
}

type PostLogReader interface {
	FindByPostID(ctx context.Context, identity, postID string) (*models.PostLog, error)
	ListRecent(ctx context.Context, identity string, limit int) ([]models.PostLog, error)
}

// GenerateHandler 는 게시글을 생성하고 게시한다.
// 실행이 failed 로 끝나면 502 와 함께 결과를 그대로 돌려준다. 본문이 생성됐다면 data.content 에 남아 있다.
func GenerateHandler(svc PostGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.GenerateRequestDTO
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
			return
		}

		res, err := svc.GenerateAndPost(c.Request.Context(), services.Request{
			Identity: body.Identity,
			Trigger:  models.TriggerManual,
		})
		if errors.Is(err, services.ErrMissingIdentity) {
			c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
			return
		}
		if err != nil {
			config.Logger.Errorf("failed to generate post: %v", err)
			c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
			return
		}

		if res.Status != models.PostStatusCompleted {
			c.JSON(http.StatusBadGateway, dto.Envelope{Success: false, Data: res, Error: res.Error})
			return
		}
		c.JSON(http.StatusOK, dto.OK(res))
	}
}

// PreviewHandler 는 외부 호출 없이 조합된 지시문을 반환한다.
func PreviewHandler(svc PostGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Preview(c.Request.Context(), c.Query("identity"))
		if errors.Is(err, services.ErrMissingIdentity) {
			c.JSON(http.StatusBadRequest, dto.Fail(err.Error()))
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
			return
		}
		c.JSON(http.StatusOK, dto.OK(p))
	}
}

// GetPostHandler 는 게시 기록 하나를 반환한다.
func GetPostHandler(logs PostLogReader, defaultIdentity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.DefaultQuery("identity", defaultIdentity)
		post, err := logs.FindByPostID(c.Request.Context(), identity, c.Param("id"))
		if errors.Is(err, repositories.ErrPostLogNotFound) {
			c.JSON(http.StatusNotFound, dto.Fail("not found"))
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
			return
		}
		c.JSON(http.StatusOK, dto.OK(post))
	}
}

// ListPostsHandler 는 최근 게시 기록을 최신순으로 반환한다. limit 은 1~100 이다.
func ListPostsHandler(logs PostLogReader, defaultIdentity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit < 1 || limit > 100 {
			c.JSON(http.StatusBadRequest, dto.Fail("limit must be between 1 and 100"))
			return
		}
		identity := c.DefaultQuery("identity", defaultIdentity)
		items, err := logs.ListRecent(c.Request.Context(), identity, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
			return
		}
		c.JSON(http.StatusOK, dto.OK(items))
	}
}
