package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bilet/cmd/worker/jobs"
	"bilet/internal/clock"
	"bilet/internal/config"
	"bilet/internal/consumers"
	"bilet/internal/database"
	"bilet/internal/external"
	"bilet/internal/logger"
	"bilet/internal/messaging"
	"bilet/internal/repository"
	"bilet/internal/service"
)

func main() {
	log.Println("Starting worker...")

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Queue consumers hold their own DB and NATS connections.
	cfg.NATS.ClientID = "bilet-worker-consumers"
	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create consumer service: %v", err)
	}

	if err := consumerService.Start(); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	// Separate connections for the expiration sweeps so sweep publishes do
	// not share a client with the durable subscriptions.
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cfg.NATS.ClientID = "bilet-worker-jobs"
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	repos := repository.NewRepositories(db)
	paymentClient := external.NewPaymentClient(cfg.Payment)
	services := service.NewServices(db, repos, natsClient, paymentClient, clock.NewSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expirationJob := jobs.NewExpirationJob(services, cfg.SweepInterval)
	expirationJob.Start(ctx)

	log.Println("Worker started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")

	expirationJob.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during consumer shutdown: %v", err)
	}

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Worker stopped")
}
