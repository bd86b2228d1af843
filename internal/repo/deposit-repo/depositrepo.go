package depositrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

const uniqueViolation = "23505"

const depositColumns = `id, user_id, amount, bonus, verification_code, status, faucetpay_email, expires_at, created_at, completed_at`

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var d domain.Deposit
	err := row.Scan(&d.ID, &d.UserID, &d.Amount, &d.Bonus, &d.VerificationCode, &d.Status,
		&d.FaucetPayEmail, &d.ExpiresAt, &d.CreatedAt, &d.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindActivePending returns the newest pending deposit of the user that has
// not reached its expiry yet.
func (r *Repository) FindActivePending(ctx context.Context, userID uuid.UUID) (*domain.Deposit, error) {
	query := `
        SELECT ` + depositColumns + `
        FROM deposits
        WHERE user_id = $1 AND status = 'pending' AND expires_at > now()
        ORDER BY created_at DESC
        LIMIT 1
    `
	d, err := scanDeposit(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find pending deposit", zap.Error(err))
		return nil, err
	}
	return d, nil
}

// Create stores a new pending deposit. A stale pending deposit of the same
// user is expired first so the one-pending-per-user index only guards live
// requests.
func (r *Repository) Create(ctx context.Context, d *domain.Deposit) error {
	expireStale := `
        UPDATE deposits
        SET status = 'expired'
        WHERE user_id = $1 AND status = 'pending' AND expires_at <= now()
    `
	insert := `
        INSERT INTO deposits (user_id, amount, bonus, verification_code, status, faucetpay_email, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := r.db.Exec(ctx, expireStale, d.UserID); err != nil {
			zap.L().Error("can't expire stale deposits", zap.Error(err))
			return err
		}
		err := r.db.QueryRow(ctx, insert, d.UserID, d.Amount, d.Bonus, d.VerificationCode, d.Status,
			d.FaucetPayEmail, d.ExpiresAt, d.CreatedAt).Scan(&d.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domain.ErrPendingDepositExists
			}
			zap.L().Error("can't save deposit", zap.Error(err))
			return err
		}
		return nil
	})
}

// ExpirePending flips every overdue pending deposit to expired in a single
// statement and returns the affected ids.
func (r *Repository) ExpirePending(ctx context.Context) ([]uuid.UUID, error) {
	query := `
        UPDATE deposits
        SET status = 'expired'
        WHERE status = 'pending' AND expires_at < now()
        RETURNING id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("can't expire deposits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("can't scan expired deposit id", zap.Error(err))
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompletePending marks the newest live pending deposit of the user that the
// received amount covers within tolerance as completed. It returns nil when
// there is none.
func (r *Repository) CompletePending(ctx context.Context, userID uuid.UUID, received, tolerance float64) (*domain.Deposit, error) {
	query := `
        UPDATE deposits
        SET status = 'completed', completed_at = now()
        WHERE id = (
            SELECT id FROM deposits
            WHERE user_id = $1 AND status = 'pending' AND expires_at > now()
              AND amount * $3::numeric <= $2::numeric
            ORDER BY created_at DESC
            LIMIT 1
            FOR UPDATE
        )
        RETURNING ` + depositColumns
	d, err := scanDeposit(r.db.QueryRow(ctx, query, userID, received, tolerance))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't complete deposit", zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Deposit, error) {
	query := `
        SELECT ` + depositColumns + `
        FROM deposits
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		zap.L().Error("can't list deposits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var deposits []domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			zap.L().Error("can't scan deposit row", zap.Error(err))
			return nil, err
		}
		deposits = append(deposits, *d)
	}
	return deposits, rows.Err()
}
