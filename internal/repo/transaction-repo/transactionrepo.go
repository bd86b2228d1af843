package transactionrepo

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

const transactionColumns = `id, user_id, tx_hash, amount, type, status, destination, notes, created_at, processed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.TxHash, &t.Amount, &t.Type, &t.Status, &t.Destination, &t.Notes, &t.CreatedAt, &t.ProcessedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *Repository) IsCompleted(ctx context.Context, txHash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE tx_hash = $1 AND status = 'completed')`
	var exists bool
	if err := r.db.QueryRow(ctx, query, txHash).Scan(&exists); err != nil {
		zap.L().Error("can't check transaction", zap.Error(err))
		return false, err
	}
	return exists, nil
}

// CompleteDeposit completes the first pending deposit row of the user for
// txHash, or records a completed one when none exists. The partial unique
// index on completed hashes makes a second completion fail with
// domain.ErrTransactionCompleted.
func (r *Repository) CompleteDeposit(ctx context.Context, userID uuid.UUID, txHash string, amount float64, notes string) (uuid.UUID, error) {
	update := `
        UPDATE transactions
        SET status = 'completed', amount = $3, notes = $4, processed_at = now()
        WHERE id = (
            SELECT id FROM transactions
            WHERE tx_hash = $1 AND user_id = $2 AND type = 'deposit' AND status = 'pending'
            ORDER BY created_at
            LIMIT 1
            FOR UPDATE
        )
        RETURNING id
    `
	insert := `
        INSERT INTO transactions (user_id, tx_hash, amount, type, status, notes, processed_at)
        VALUES ($1, $2, $3, 'deposit', 'completed', $4, now())
        RETURNING id
    `
	var id uuid.UUID
	err := r.db.QueryRow(ctx, update, txHash, userID, amount, notes).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = r.db.QueryRow(ctx, insert, userID, txHash, amount, notes).Scan(&id)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, domain.ErrTransactionCompleted
		}
		zap.L().Error("can't complete deposit transaction", zap.Error(err))
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) CreateWithdrawal(ctx context.Context, withdrawal *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, amount, type, status, destination, notes)
		VALUES ($1, $2, 'withdrawal', 'pending', $3, $4)
		RETURNING id, type, status, created_at
	`
	err := r.db.QueryRow(ctx, query, withdrawal.UserID, withdrawal.Amount, withdrawal.Destination, withdrawal.Notes).
		Scan(&withdrawal.ID, &withdrawal.Type, &withdrawal.Status, &withdrawal.CreatedAt)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) GetWithdrawalsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE user_id = $1 AND type = 'withdrawal'
        ORDER BY created_at DESC
    `
	return r.list(ctx, query, userID)
}

func (r *Repository) FindPendingWithdrawals(ctx context.Context, limit uint32) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE type = 'withdrawal' AND status = 'pending'
        ORDER BY created_at ASC
        LIMIT $1
    `
	return r.list(ctx, query, int(limit))
}

// ClaimWithdrawal moves a pending withdrawal to processing. Only the caller
// that gets true may send the payout.
func (r *Repository) ClaimWithdrawal(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
        UPDATE transactions
        SET status = 'processing'
        WHERE id = $1 AND type = 'withdrawal' AND status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		zap.L().Error("failed to claim withdrawal", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseWithdrawal returns a claimed withdrawal to pending.
func (r *Repository) ReleaseWithdrawal(ctx context.Context, id uuid.UUID, notes string) (bool, error) {
	query := `
        UPDATE transactions
        SET status = 'pending', notes = $2
        WHERE id = $1 AND status = 'processing'
    `
	tag, err := r.db.Exec(ctx, query, id, notes)
	if err != nil {
		zap.L().Error("failed to release withdrawal", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FinishWithdrawal moves a claimed withdrawal to status. It reports false
// when the row was no longer processing.
func (r *Repository) FinishWithdrawal(ctx context.Context, id uuid.UUID, status, notes string) (bool, error) {
	query := `
        UPDATE transactions
        SET status = $2, notes = $3, processed_at = now()
        WHERE id = $1 AND status = 'processing'
    `
	tag, err := r.db.Exec(ctx, query, id, status, notes)
	if err != nil {
		zap.L().Error("failed to update withdrawal", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}
