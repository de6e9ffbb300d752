package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"autopost/cmd/api/handlers"
	"autopost/cmd/api/middleware"
)

type Deps struct {
	Posts           handlers.PostGenerator
	PostLogs        handlers.PostLogReader
	DefaultIdentity string
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/posts/generate", handlers.GenerateHandler(d.Posts))
		api.GET("/posts/preview", handlers.PreviewHandler(d.Posts))
		api.GET("/posts", handlers.ListPostsHandler(d.PostLogs, d.DefaultIdentity))
		api.GET("/posts/:id", handlers.GetPostHandler(d.PostLogs, d.DefaultIdentity))
	}

	return r
}

// WithCORS 는 허용된 origin 에서의 브라우저 호출을 허용한다. origins 가 비어 있으면 CORS 헤더를 붙이지 않는다.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "X-Span-Id"},
	}).Handler(h)
}
