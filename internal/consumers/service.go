package consumers

import (
	"context"
	"log/slog"

	"bilet/internal/config"
	"bilet/internal/database"
	"bilet/internal/external"
	"bilet/internal/messaging"
	"bilet/internal/models"
	"bilet/internal/repository"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	notifier := external.NewNotifierClient(cfg.Notifier)
	handlers := NewHandlers(repos, notifier)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventReservationCreated, "consumers", cs.handlers.HandleReservationCreated); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventReservationCancelled, "consumers", cs.handlers.HandleReservationCancelled); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventReservationExpired, "consumers", cs.handlers.HandleReservationExpired); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventPaymentCompleted, "consumers", cs.handlers.HandlePaymentCompleted); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventTransferInitiated, "consumers", cs.handlers.HandleTransferInitiated); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventTransferAccepted, "consumers", cs.handlers.HandleTransferAccepted); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventTransferRejected, "consumers", cs.handlers.HandleTransferRejected); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventTransferExpired, "consumers", cs.handlers.HandleTransferExpired); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
