package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkwatch/app/internal/actions"
	"linkwatch/app/internal/auth"
	"linkwatch/app/internal/config"
	"linkwatch/app/internal/detector"
	"linkwatch/app/internal/failover"
	"linkwatch/app/internal/handlers"
	"linkwatch/app/internal/history"
	"linkwatch/app/internal/monitor"
	"linkwatch/app/internal/notify"
	"linkwatch/app/internal/probe"
	"linkwatch/app/internal/ratelimit"
	"linkwatch/app/internal/scenes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	hist, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer hist.Close()

	// Scene switcher bridge and notification channels
	switcher := scenes.NewClient(cfg.SwitcherBaseURL)
	dispatcher := buildDispatcher(cfg)
	dispatcher.SetRecorder(hist)

	boards := notify.NewBoardRegistry()
	boards.Register("log", notify.LogBoard{})
	if cfg.DiscordStatusWebhookURL != "" && cfg.DiscordStatusMessageID != "" {
		boards.Register("discord-status",
			notify.NewDiscordMessageBoard(cfg.DiscordStatusWebhookURL, cfg.DiscordStatusMessageID))
		log.Printf("Discord status board registered for message %s", cfg.DiscordStatusMessageID)
	}

	// Monitor pipeline: probe -> detector -> failover controller
	checker := probe.New(cfg.StatsEndpoint, probe.Thresholds{
		BitrateKbps: cfg.BitrateThresholdKbps,
		RTTMs:       cfg.RTTThresholdMs,
		Dropped:     cfg.DroppedThreshold,
	})
	det := detector.New(cfg.CheckInterval, cfg.TimeoutThreshold)
	ctrl := failover.New(cfg, switcher, dispatcher)

	loop := monitor.New(cfg, checker, det, ctrl)
	loop.SetRecorder(hist)
	loop.SetPublisher(boards)

	if cfg.Enabled {
		if err := loop.Start(); err != nil {
			log.Printf("Monitor not started: %v", err)
		}
	} else {
		log.Printf("Connection monitoring is disabled in config")
	}

	// Quick actions and HTTP API
	tbl := actions.Build(cfg.QuickActions, switcher)
	authMgr := auth.New(cfg.AdminTokenHash)
	limiter := ratelimit.New(120, 30)
	defer limiter.Stop()
	mux := handlers.SetupRoutes(authMgr, loop, switcher, hist, tbl, cfg, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Block until asked to shut down, then stop the loop before the server
	// so no scene switch can happen after the process starts draining.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("Shutting down")
	loop.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// buildDispatcher wires every configured notification channel.
func buildDispatcher(cfg *config.Config) *notify.Dispatcher {
	var sinks []notify.Sink
	if cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, notify.NewDiscordSink(cfg.DiscordWebhookURL))
	}
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.SlackWebhookURL))
	}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.WebhookURL, cfg.WebhookSecret))
	}
	return notify.NewDispatcher(cfg.NotificationsEnabled, sinks...)
}
