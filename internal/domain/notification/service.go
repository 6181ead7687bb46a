// Package notification keeps a per-user inbox filled from domain events.
package notification

import (
	"context"
	"errors"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/sanitizer"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Inbox struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

type Service struct {
	repo *Repository
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Notify stores a new unread entry for email.
func (s *Service) Notify(ctx context.Context, email string, t domain.NotificationType, title, message string, data map[string]any) error {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil
	}
	return s.repo.Create(ctx, &domain.Notification{
		RecipientEmail: email,
		Type:           t,
		Title:          title,
		Message:        message,
		Data:           data,
	})
}

func (s *Service) List(ctx context.Context, email string, limit, offset int) (*Inbox, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	email = sanitizer.NormalizeEmail(email)

	list, err := s.repo.ListByRecipient(ctx, email, limit, offset)
	if err != nil {
		return nil, apperr.Store(err)
	}
	unread, err := s.repo.CountUnread(ctx, email)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &Inbox{Notifications: list, UnreadCount: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, email string) (int64, error) {
	n, err := s.repo.CountUnread(ctx, sanitizer.NormalizeEmail(email))
	if err != nil {
		return 0, apperr.Store(err)
	}
	return n, nil
}

func (s *Service) MarkAsRead(ctx context.Context, email string, id int64) error {
	return s.storeError(s.repo.MarkAsRead(ctx, id, sanitizer.NormalizeEmail(email), s.now().UTC()))
}

func (s *Service) MarkAllAsRead(ctx context.Context, email string) (int64, error) {
	n, err := s.repo.MarkAllAsRead(ctx, sanitizer.NormalizeEmail(email), s.now().UTC())
	if err != nil {
		return 0, apperr.Store(err)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, email string, id int64) error {
	return s.storeError(s.repo.Delete(ctx, id, sanitizer.NormalizeEmail(email)))
}

// Purge removes read notifications older than retention.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.repo.DeleteReadBefore(ctx, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	s.log.Info("notifications purged", "deleted", n, "retention", retention.String())
	return n, nil
}

func (s *Service) storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	return apperr.Store(err)
}
