package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do"

	"github.com/bryanwahyu/renovator/internal/config"
	"github.com/bryanwahyu/renovator/internal/inject"
	"github.com/bryanwahyu/renovator/internal/log"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.Server.LogLevel))
	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), logger))
	defer cancel()

	injector := inject.Setup(ctx, cfg)
	handler, err := do.Invoke[http.Handler](injector)
	if err != nil {
		logger.Error("init error", "error", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr, "provider", cfg.Generator.Provider, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	cancel()
	if err := injector.Shutdown(); err != nil {
		logger.Error("injector shutdown error", "error", err)
	}
}
