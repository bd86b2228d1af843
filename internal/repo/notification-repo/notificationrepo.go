package notificationrepo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
        INSERT INTO notifications (user_id, type, title, message, data)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, is_read, created_at
    `
	data := n.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	err := r.db.QueryRow(ctx, query, n.UserID, n.Type, n.Title, n.Message, data).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		zap.L().Error("can't save notification", zap.Error(err))
		return err
	}
	n.Data = data
	return nil
}

// CreateForAdmins inserts one notification per admin user and returns the
// number of rows written.
func (r *Repository) CreateForAdmins(ctx context.Context, typ, title, message string, data json.RawMessage) (int64, error) {
	query := `
        INSERT INTO notifications (user_id, type, title, message, data)
        SELECT id, $1, $2, $3, $4 FROM users WHERE is_admin
    `
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	tag, err := r.db.Exec(ctx, query, typ, title, message, data)
	if err != nil {
		zap.L().Error("can't save admin notifications", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	query := `
        SELECT id, user_id, type, title, message, data, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		zap.L().Error("failed to fetch notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data, &n.IsRead, &n.CreatedAt); err != nil {
			zap.L().Error("failed to scan notification row", zap.Error(err))
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		zap.L().Error("failed to count notifications", zap.Error(err))
		return 0, err
	}
	return count, nil
}

// MarkRead reports false when the notification does not belong to userID.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		zap.L().Error("failed to mark notification", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to mark notifications", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
