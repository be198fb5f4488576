package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"victoria-kids-api/internal/models"
	"victoria-kids-api/internal/store"
	"victoria-kids-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewsletterPublisher publishes newsletter signup events.
type NewsletterPublisher interface {
	PublishNewsletterSubscribed(ctx context.Context, event *models.NewsletterSubscribedEvent) error
}

// NewsletterService handles newsletter signups and the admin
// subscriber listing.
type NewsletterService struct {
	store  *store.Store
	events NewsletterPublisher
	logger *zap.Logger
}

// NewNewsletterService creates a new newsletter service. events may be
// nil.
func NewNewsletterService(st *store.Store, events NewsletterPublisher) *NewsletterService {
	return &NewsletterService{store: st, events: events, logger: util.GetLogger()}
}

// SubscribeRequest signs an email up for the newsletter
type SubscribeRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Subscribe adds or reactivates a subscriber. Subscribing an address
// that is already active is a duplicate; a previously unsubscribed
// address is reactivated in place.
func (ns *NewsletterService) Subscribe(ctx context.Context, req *SubscribeRequest) (*models.NewsletterSubscriber, error) {
	ctx, span := util.StartSpan(ctx, "NewsletterService.Subscribe")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	source := req.Source
	if source == "" {
		source = "website"
	}

	existing, err := ns.store.GetSubscriberByEmail(ctx, email)
	switch {
	case err == nil && existing.Status == models.SubscriberStatusActive:
		return nil, fmt.Errorf("email %s already subscribed: %w", email, models.ErrDuplicate)

	case err == nil:
		if err := ns.store.UpdateSubscriberStatus(ctx, existing.ID,
			models.SubscriberStatusActive, req.Name, source); err != nil {
			return nil, fmt.Errorf("failed to resubscribe: %w", err)
		}
		existing.Status = models.SubscriberStatusActive
		existing.Name = req.Name
		existing.Source = source
		ns.publishSubscribed(ctx, existing)
		return existing, nil

	case errors.Is(err, models.ErrNotFound):
		sub := &models.NewsletterSubscriber{
			Email:  email,
			Name:   req.Name,
			Status: models.SubscriberStatusActive,
			Source: source,
		}
		if err := ns.store.CreateSubscriber(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}
		ns.logger.Info("Newsletter subscription", zap.String("email", email), zap.String("source", source))
		ns.publishSubscribed(ctx, sub)
		return sub, nil

	default:
		return nil, err
	}
}

func (ns *NewsletterService) publishSubscribed(ctx context.Context, sub *models.NewsletterSubscriber) {
	if ns.events == nil {
		return
	}
	event := &models.NewsletterSubscribedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeNewsletterSubscribed,
			Timestamp: time.Now(),
		},
		Email: sub.Email,
		Name:  sub.Name,
	}
	if err := ns.events.PublishNewsletterSubscribed(ctx, event); err != nil {
		ns.logger.Error("Failed to publish newsletter subscribed event",
			zap.String("email", sub.Email), zap.Error(err))
	}
}

// Unsubscribe flips a subscriber to unsubscribed
func (ns *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	return ns.store.UnsubscribeByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// SubscriberPage is a paginated admin subscriber listing
type SubscriberPage struct {
	Subscribers []models.NewsletterSubscriber `json:"subscribers"`
	Total       int                           `json:"total"`
	Page        int                           `json:"page"`
	Pages       int                           `json:"pages"`
}

// ListSubscribers returns a filtered page for the admin panel
func (ns *NewsletterService) ListSubscribers(ctx context.Context, f store.SubscriberFilter) (*SubscriberPage, error) {
	subs, total, err := ns.store.ListSubscribers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return &SubscriberPage{
		Subscribers: subs,
		Total:       total,
		Page:        page,
		Pages:       (total + limit - 1) / limit,
	}, nil
}
