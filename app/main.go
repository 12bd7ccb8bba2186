package main

import (
	"log"
	"net/http"
	"time"

	"pulse/app/internal/auth"
	"pulse/app/internal/compactor"
	"pulse/app/internal/config"
	"pulse/app/internal/database"
	"pulse/app/internal/handlers"
	"pulse/app/internal/heartbeat"
	"pulse/app/internal/security"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	if err := database.Init(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	authority := auth.NewAuthority()
	bootstrapKey(authority, cfg)

	// Start the compaction job when co-hosted. The request path never
	// depends on it.
	if cfg.EnableCompactor {
		comp := compactor.New()
		comp.MinuteRetention = cfg.MinuteRetention
		comp.HourRetention = cfg.HourRetention
		comp.DayRetention = cfg.DayRetention
		comp.Start()
	}

	// Setup HTTP routes
	mux := handlers.SetupRoutes(authority, heartbeat.NewIngestor())

	// Wrap with security middleware
	handler := security.SecureHeaders(mux)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// bootstrapKey issues an initial API key when the key table is empty,
// so a fresh install has one credential to start from. The token is
// printed once and never recoverable afterwards.
func bootstrapKey(authority *auth.Authority, cfg *config.Config) {
	if cfg.BootstrapClientID == "" {
		return
	}

	var count int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM api_keys`).Scan(&count); err != nil {
		log.Printf("Warning: failed to check api_keys: %v", err)
		return
	}
	if count > 0 {
		return
	}

	token, err := authority.CreateKey(cfg.BootstrapClientID, true, true)
	if err != nil {
		log.Printf("Warning: failed to bootstrap API key: %v", err)
		return
	}
	log.Printf("Bootstrap API key for %s: %s", cfg.BootstrapClientID, token)
}
