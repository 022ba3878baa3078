package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/cache"
	"fridgefeast/internal/kitchen"
	"fridgefeast/internal/prefs"
	"fridgefeast/internal/recipes"
	"fridgefeast/internal/static"
	"fridgefeast/internal/templates"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sweepEvery = time.Hour

func runServer(a *app, addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := cache.MakeCache(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}

	mux, reg, err := newMux(a.svc, store, a.provider)
	if err != nil {
		return err
	}
	if err := prometheus.DefaultRegisterer.Register(reg.Collector()); err != nil {
		return fmt.Errorf("failed to register session metrics: %w", err)
	}
	go reg.Run(ctx, sweepEvery)

	server := &http.Server{
		Addr:              addr,
		Handler:           WithMiddleware(mux, prometheus.DefaultRegisterer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Serving Fridge Feast", "address", addr, "mock", a.cfg.MockMode())
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

func newMux(svc *recipes.Service, store cache.ListCache, provider ai.Provider) (*http.ServeMux, *kitchen.Registry, error) {
	static.Init()
	if err := templates.Init(static.CSSAssetPath, static.JSAssetPath); err != nil {
		return nil, nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	mux := http.NewServeMux()
	static.Register(mux)
	recipes.NewServer(svc).Register(mux)

	reg := kitchen.NewRegistry(svc, store)
	prefs.NewServer(reg.Store).Register(mux)
	kitchen.NewServer(reg).Register(mux)

	ro := &readyOnce{}
	ro.Add(readyFunc(func(ctx context.Context) error { return ai.Ready(ctx, provider) }))
	if r, ok := store.(Readyable); ok {
		ro.Add(r)
	}
	mux.Handle("/ready", ro)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux, reg, nil
}

func gracefulShutdown(svr *http.Server) error {
	// kubernetes gives 30 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	return nil
}
