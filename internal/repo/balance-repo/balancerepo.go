package balancerepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

// Repository reads profiles and calls the balance procedures. Balances are
// never written with plain UPDATEs from here.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `
        SELECT user_id, balance, total_earned, referral_code, referred_by
        FROM profiles
        WHERE user_id = $1
    `
	var profile domain.Profile
	err := r.db.QueryRow(ctx, query, userID).
		Scan(&profile.UserID, &profile.Balance, &profile.TotalEarned, &profile.ReferralCode, &profile.ReferredBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get profile", zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) CreateProfile(ctx context.Context, userID uuid.UUID, referralCode string) (*domain.Profile, error) {
	query := `
        INSERT INTO profiles (user_id, referral_code)
        VALUES ($1, $2)
        RETURNING user_id, balance, total_earned, referral_code, referred_by
    `
	var profile domain.Profile
	err := r.db.QueryRow(ctx, query, userID, referralCode).
		Scan(&profile.UserID, &profile.Balance, &profile.TotalEarned, &profile.ReferralCode, &profile.ReferredBy)
	if err != nil {
		zap.L().Error("failed to create profile", zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) AddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error) {
	return r.call(ctx, "SELECT success, new_balance, error FROM add_balance($1, $2)", userID, amount)
}

func (r *Repository) InternalAddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error) {
	return r.call(ctx, "SELECT success, new_balance, error FROM internal_add_balance($1, $2)", userID, amount)
}

func (r *Repository) SubtractBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error) {
	return r.call(ctx, "SELECT success, new_balance, error FROM subtract_balance($1, $2)", userID, amount)
}

func (r *Repository) ApplyReferralCode(ctx context.Context, userID uuid.UUID, code string, bonus float64) (*domain.BalanceResult, error) {
	return r.call(ctx, "SELECT success, new_balance, error FROM apply_referral_code($1, $2, $3)", userID, code, bonus)
}

func (r *Repository) ClaimMiningReward(ctx context.Context, userID uuid.UUID, rate, maxHours float64) (*domain.MiningResult, error) {
	query := "SELECT success, new_balance, reward, error FROM claim_mining_reward($1, $2, $3)"
	var res domain.MiningResult
	err := r.db.QueryRow(ctx, query, userID, rate, maxHours).
		Scan(&res.Success, &res.NewBalance, &res.Reward, &res.Error)
	if err != nil {
		zap.L().Error("failed to claim mining reward", zap.Error(err))
		return nil, err
	}
	return &res, nil
}

func (r *Repository) call(ctx context.Context, query string, args ...any) (*domain.BalanceResult, error) {
	var res domain.BalanceResult
	if err := r.db.QueryRow(ctx, query, args...).Scan(&res.Success, &res.NewBalance, &res.Error); err != nil {
		zap.L().Error("balance procedure failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return &res, nil
}
