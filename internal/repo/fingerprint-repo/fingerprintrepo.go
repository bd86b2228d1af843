package fingerprintrepo

import (
	"context"

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

// Stats counts distinct users seen behind fingerprint and ip, leaving out
// exclude when it is set. Banned reports whether any linked user is banned.
func (r *Repository) Stats(ctx context.Context, fingerprint, ip string, exclude *uuid.UUID) (*domain.FingerprintStats, error) {
	query := `
        SELECT
            count(DISTINCT df.user_id) FILTER (WHERE df.fingerprint = $1 AND ($3::uuid IS NULL OR df.user_id <> $3)),
            count(DISTINCT df.user_id) FILTER (WHERE df.ip_address = $2 AND ($3::uuid IS NULL OR df.user_id <> $3)),
            COALESCE(bool_or(u.is_banned), FALSE)
        FROM device_fingerprints df
        JOIN users u ON u.id = df.user_id
        WHERE df.fingerprint = $1 OR df.ip_address = $2
    `
	var stats domain.FingerprintStats
	err := r.db.QueryRow(ctx, query, fingerprint, ip, exclude).
		Scan(&stats.FingerprintAccounts, &stats.IPAccounts, &stats.Banned)
	if err != nil {
		zap.L().Error("can't collect fingerprint stats", zap.Error(err))
		return nil, err
	}
	return &stats, nil
}

// Save records the association of a user with a fingerprint and address.
// Repeated saves refresh the user agent only.
func (r *Repository) Save(ctx context.Context, fp *domain.DeviceFingerprint) error {
	query := `
        INSERT INTO device_fingerprints (user_id, fingerprint, ip_address, user_agent)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, fingerprint, ip_address) DO UPDATE SET user_agent = EXCLUDED.user_agent
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, fp.UserID, fp.Fingerprint, fp.IPAddress, fp.UserAgent).
		Scan(&fp.ID, &fp.CreatedAt)
	if err != nil {
		zap.L().Error("can't save fingerprint", zap.Error(err))
		return err
	}
	return nil
}
