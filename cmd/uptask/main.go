package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptaskhq/uptask-server/internal/auth"
	"github.com/uptaskhq/uptask-server/internal/database"
	"github.com/uptaskhq/uptask-server/internal/email"
	"github.com/uptaskhq/uptask-server/internal/logging"
	"github.com/uptaskhq/uptask-server/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("UPTASK_LOG_LEVEL"))

	port := os.Getenv("UPTASK_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("UPTASK_DB_PATH")
	if dbPath == "" {
		dbPath = "uptask.db"
	}

	secret := os.Getenv("UPTASK_JWT_SECRET")
	if secret == "" {
		log.Fatal("UPTASK_JWT_SECRET is required")
	}

	var sessionTTL time.Duration
	if v := os.Getenv("UPTASK_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid UPTASK_SESSION_TTL: %v", err)
		}
		sessionTTL = ttl
	}

	frontendURL := os.Getenv("UPTASK_FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("UPTASK_POSTMARK_TOKEN"),
		os.Getenv("UPTASK_FROM_EMAIL"),
		frontendURL,
	)
	if !emailClient.Configured() {
		logger.Warn("email not configured, confirmation codes will be logged instead")
	}

	issuer := auth.NewIssuer([]byte(secret), sessionTTL)

	srv := server.New(db, emailClient, issuer, []string{frontendURL}, logger)

	// Expired tokens and stale rate-limit buckets are swept in the background.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.TokenStore().DeleteExpired(); err != nil {
					logger.Error("token sweep", "error", err)
				} else if n > 0 {
					logger.Info("token sweep", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			case <-sweepDone:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("UpTask running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(sweepDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
