package notifyservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
)

//go:generate mockgen -source=notifyservice.go -destination=mock_notifyservice.go -package=notifyservice

type Repo interface {
	Create(ctx context.Context, n *domain.Notification) error
	CreateForAdmins(ctx context.Context, typ, title, message string, data json.RawMessage) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

func encode(data any) (json.RawMessage, error) {
	if data == nil {
		return json.RawMessage(`{}`), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode notification data: %w", err)
	}
	return raw, nil
}

func (s *Service) NotifyUser(ctx context.Context, userID uuid.UUID, kind, title, message string, data any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	n := &domain.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    raw,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		zap.L().Error("failed to notify user", zap.String("userID", userID.String()), zap.Error(err))
		return err
	}
	return nil
}

// NotifyAdmins fans a notification out to every admin account.
func (s *Service) NotifyAdmins(ctx context.Context, kind, title, message string, data any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	n, err := s.repo.CreateForAdmins(ctx, kind, title, message, raw)
	if err != nil {
		zap.L().Error("failed to notify admins", zap.Error(err))
		return err
	}
	zap.L().Debug("admins notified", zap.String("type", kind), zap.Int64("recipients", n))
	return nil
}

// List returns the newest notifications of the user together with the
// total number of unread ones. limit is clamped to [1, MaxLimit].
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, int, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	list, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
