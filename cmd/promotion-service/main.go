package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ertantorizkyf/promotion-service/internal/api"
	"github.com/ertantorizkyf/promotion-service/internal/config"
	"github.com/ertantorizkyf/promotion-service/internal/logger"
	"github.com/ertantorizkyf/promotion-service/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog := logger.New("promotion-service")

	conn, err := db.NewPostgresConnection(cfg.DB)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer conn.Close()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(conn, cfg, appLog),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	appLog.Info(context.Background(), "startup", "starting promotion-service on "+cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}

	<-idleConnsClosed
	appLog.Info(context.Background(), "shutdown", "server stopped")
}
