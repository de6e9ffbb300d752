package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autopost/cmd/api/router"
	"autopost/cmd/internal/app"
	"autopost/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		config.Logger.Errorf("failed to start api: %v", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	r := router.New(router.Deps{
		Posts:           a.Service,
		PostLogs:        a.PostLogs,
		DefaultIdentity: a.Config.Identity.Default,
	})
	srv := &http.Server{
		Addr:              a.Config.API.Addr,
		Handler:           router.WithCORS(r, a.Config.API.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		config.Logger.Infof("api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Logger.Errorf("api server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.Logger.Errorf("failed to shut down api server: %v", err)
	}
}
