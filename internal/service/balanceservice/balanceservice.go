package balanceservice

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

//go:generate mockgen -source=balanceservice.go -destination=mock_balanceservice.go -package=balanceservice

type BalanceRepo interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	CreateProfile(ctx context.Context, userID uuid.UUID, referralCode string) (*domain.Profile, error)
	AddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)
	SubtractBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)
	ClaimMiningReward(ctx context.Context, userID uuid.UUID, rate, maxHours float64) (*domain.MiningResult, error)
	ApplyReferralCode(ctx context.Context, userID uuid.UUID, code string, bonus float64) (*domain.BalanceResult, error)
}

type WithdrawalRepo interface {
	CreateWithdrawal(ctx context.Context, withdrawal *domain.Transaction) (*domain.Transaction, error)
	GetWithdrawalsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
}

type Notifier interface {
	NotifyAdmins(ctx context.Context, kind, title, message string, data any) error
}

type Service struct {
	balanceRepo    BalanceRepo
	withdrawalRepo WithdrawalRepo
	notifier       Notifier
	txManager      pg.TXManager

	miningRate     float64
	miningMaxHours float64
	referralBonus  float64
	withdrawMin    float64
}

func New(cfg *config.Config, balanceRepo BalanceRepo, withdrawalRepo WithdrawalRepo, notifier Notifier, txManager pg.TXManager) *Service {
	return &Service{
		balanceRepo:    balanceRepo,
		withdrawalRepo: withdrawalRepo,
		notifier:       notifier,
		txManager:      txManager,
		miningRate:     cfg.MiningRate,
		miningMaxHours: cfg.MiningMaxHours,
		referralBonus:  cfg.ReferralBonus,
		withdrawMin:    cfg.WithdrawMin,
	}
}

const insufficientBalance = "Insufficient balance"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrProfileNotFound     = errors.New("profile not found")
	// ErrRejected wraps a refusal reported by a balance procedure.
	ErrRejected = errors.New("balance operation rejected")
)

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferralCode returns an 8 character code over an alphabet without
// look-alike characters.
func NewReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(referralAlphabet[int(b)%len(referralAlphabet)])
	}
	return sb.String(), nil
}

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.balanceRepo.GetProfile(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) CreateBalance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	code, err := NewReferralCode()
	if err != nil {
		return nil, err
	}
	profile, err := s.balanceRepo.CreateProfile(ctx, userID, code)
	if err != nil {
		zap.L().Error("failed to create balance", zap.Error(err))
		return nil, err
	}
	return profile, nil
}

func (s *Service) AddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	res, err := s.balanceRepo.AddBalance(ctx, userID, amount)
	if err != nil {
		zap.L().Error("failed to add balance", zap.Error(err))
		return nil, err
	}
	if !res.Success {
		return res, fmt.Errorf("%w: %s", ErrRejected, res.Error)
	}
	zap.L().Info("balance added", zap.String("userID", userID.String()), zap.Float64("amount", amount))
	return res, nil
}

// SubtractBalance reports an insufficient balance as ErrInsufficientBalance,
// any other refusal as ErrRejected.
func (s *Service) SubtractBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	res, err := s.balanceRepo.SubtractBalance(ctx, userID, amount)
	if err != nil {
		zap.L().Error("failed to subtract balance", zap.Error(err))
		return nil, err
	}
	if !res.Success {
		if res.Error == insufficientBalance {
			return res, ErrInsufficientBalance
		}
		return res, fmt.Errorf("%w: %s", ErrRejected, res.Error)
	}
	return res, nil
}

func (s *Service) ClaimMiningReward(ctx context.Context, userID uuid.UUID) (*domain.MiningResult, error) {
	res, err := s.balanceRepo.ClaimMiningReward(ctx, userID, s.miningRate, s.miningMaxHours)
	if err != nil {
		zap.L().Error("failed to claim mining reward", zap.Error(err))
		return nil, err
	}
	if res.Success {
		zap.L().Info("mining reward claimed", zap.String("userID", userID.String()), zap.Float64("reward", res.Reward))
	}
	return res, nil
}

func (s *Service) ApplyReferralCode(ctx context.Context, userID uuid.UUID, code string) (*domain.BalanceResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidReferralCode
	}
	res, err := s.balanceRepo.ApplyReferralCode(ctx, userID, code, s.referralBonus)
	if err != nil {
		zap.L().Error("failed to apply referral code", zap.Error(err))
		return nil, err
	}
	return res, nil
}

// Withdraw debits the balance and queues a pending withdrawal for the payout
// processor. Both writes commit together.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount float64, destination string) (*domain.Transaction, error) {
	if amount < s.withdrawMin {
		return nil, ErrInvalidAmount
	}

	withdrawal := &domain.Transaction{
		UserID:      userID,
		Amount:      amount,
		Destination: destination,
	}
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.SubtractBalance(ctx, userID, amount); err != nil {
			return err
		}
		if _, err := s.withdrawalRepo.CreateWithdrawal(ctx, withdrawal); err != nil {
			zap.L().Error("failed to create withdrawal record", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Withdrawal of %.8f DOGE to %s queued", amount, destination)
	if err := s.notifier.NotifyAdmins(ctx, domain.NotificationWithdrawal, "New withdrawal", msg, map[string]any{
		"transaction_id": withdrawal.ID,
		"user_id":        userID,
		"amount":         amount,
	}); err != nil {
		zap.L().Warn("failed to notify admins about withdrawal", zap.Error(err))
	}
	zap.L().Info("withdrawal queued", zap.String("userID", userID.String()), zap.Float64("amount", amount))
	return withdrawal, nil
}

func (s *Service) GetWithdrawals(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	withdrawals, err := s.withdrawalRepo.GetWithdrawalsByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}
