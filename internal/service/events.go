package service

import (
	"context"
	"fmt"

	apperrors "bilet/internal/errors"
	"bilet/internal/models"
	"bilet/internal/repository"
)

type EventService struct {
	eventRepo *repository.EventRepository
}

func NewEventService(eventRepo *repository.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	if req.TicketsTotal <= 0 {
		return nil, fmt.Errorf("tickets_total must be positive: %w", apperrors.ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative: %w", apperrors.ErrValidation)
	}

	event := &models.Event{
		Title:            req.Title,
		Venue:            req.Venue,
		Provider:         "bilet",
		StartsAt:         req.StartsAt,
		TicketsTotal:     req.TicketsTotal,
		TicketsAvailable: req.TicketsTotal,
		Price:            req.Price,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &models.CreateEventResponse{ID: event.ID}, nil
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.EventResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", id, apperrors.ErrNotFound)
	}

	return eventResponse(event), nil
}

func (s *EventService) List(ctx context.Context, page, pageSize int) ([]models.EventResponse, error) {
	events, err := s.eventRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]models.EventResponse, len(events))
	for i := range events {
		result[i] = *eventResponse(&events[i])
	}
	return result, nil
}

func eventResponse(event *models.Event) *models.EventResponse {
	return &models.EventResponse{
		ID:               event.ID,
		Title:            event.Title,
		Venue:            event.Venue,
		StartsAt:         event.StartsAt,
		TicketsTotal:     event.TicketsTotal,
		TicketsAvailable: event.TicketsAvailable,
		Price:            event.Price,
	}
}
