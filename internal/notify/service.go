package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

// MailboxLimit is how many notifications a user sees at once.
const MailboxLimit = 50

// Service is the per-user notification mailbox.
type Service struct {
	repo repository.NotificationRepository
}

func NewService(repo repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// List returns the newest notifications of userID.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	list, err := s.repo.ListByUser(ctx, userID, MailboxLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead flips one notification. Somebody else's notification reads as missing.
func (s *Service) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	n, err := s.repo.MarkRead(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound("Not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.Unauthenticated("Not authorized")
	}
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.Unauthenticated("Not authorized")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// Deliver writes the notification an outbox event describes. The notification reuses the
// event id, so a redelivered event is dropped as a duplicate.
func (s *Service) Deliver(ctx context.Context, event *domain.OutboxEvent) error {
	n := domain.NewNotification(event.Effect, event.CreatedAt)
	n.ID = event.ID
	err := s.repo.Create(ctx, n)
	if errors.Is(err, repository.ErrDuplicate) {
		log.Printf("notification %v already delivered, skipping", event.ID)
		return nil
	}
	return err
}
