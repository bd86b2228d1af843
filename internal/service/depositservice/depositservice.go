package depositservice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/explorer"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

//go:generate mockgen -source=depositservice.go -destination=mock_depositservice.go -package=depositservice

type DepositRepo interface {
	FindActivePending(ctx context.Context, userID uuid.UUID) (*domain.Deposit, error)
	Create(ctx context.Context, d *domain.Deposit) error
	ExpirePending(ctx context.Context) ([]uuid.UUID, error)
	CompletePending(ctx context.Context, userID uuid.UUID, received, tolerance float64) (*domain.Deposit, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Deposit, error)
}

type TransactionRepo interface {
	IsCompleted(ctx context.Context, txHash string) (bool, error)
	CompleteDeposit(ctx context.Context, userID uuid.UUID, txHash string, amount float64, notes string) (uuid.UUID, error)
}

type BalanceRepo interface {
	InternalAddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)
}

type Explorer interface {
	Transaction(ctx context.Context, hash string) (*explorer.Transaction, error)
}

type Mailer interface {
	Enabled() bool
	Send(to, subject, body string) error
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, kind, title, message string, data any) error
	NotifyAdmins(ctx context.Context, kind, title, message string, data any) error
}

const (
	codePrefix  = "DEP"
	listLimit   = 50
	unitShift   = explorer.CoinExponent
	amountScale = 8
)

// Verification failures reported to the caller with success=false.
const (
	MsgAlreadyProcessed = "Transaction already processed"
	MsgNotFound         = "Transaction not found on blockchain"
	MsgNotConfirmed     = "Transaction not confirmed yet"
	MsgNoOutput         = "No output to deposit address"
	MsgAmountMismatch   = "Amount mismatch"
	MsgVerified         = "Deposit verified and credited"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidRequest = errors.New("invalid request")
	errCreditRejected = errors.New("credit rejected")
)

type Issued struct {
	Deposit     *domain.Deposit
	PaymentURL  string
	PromoActive bool
	Recipient   string
	Reused      bool
}

func (i *Issued) TotalCredited() float64 {
	return decimal.NewFromFloat(i.Deposit.Amount).Add(decimal.NewFromFloat(i.Deposit.Bonus)).Round(amountScale).InexactFloat64()
}

type VerifyRequest struct {
	TxHash         string
	ExpectedAmount float64
	UserID         uuid.UUID
}

type VerifyResult struct {
	Success        bool
	CreditedAmount float64
	Confirmations  int
	Message        string
}

func failure(msg string, confirmations int) *VerifyResult {
	return &VerifyResult{Success: false, Message: msg, Confirmations: confirmations}
}

type Service struct {
	cfg             *config.Config
	depositRepo     DepositRepo
	transactionRepo TransactionRepo
	balanceRepo     BalanceRepo
	explorer        Explorer
	mailer          Mailer
	notifier        Notifier
	txManager       pg.TXManager

	now func() time.Time
}

func New(
	cfg *config.Config,
	depositRepo DepositRepo,
	transactionRepo TransactionRepo,
	balanceRepo BalanceRepo,
	explorer Explorer,
	mailer Mailer,
	notifier Notifier,
	txManager pg.TXManager,
) *Service {
	return &Service{
		cfg:             cfg,
		depositRepo:     depositRepo,
		transactionRepo: transactionRepo,
		balanceRepo:     balanceRepo,
		explorer:        explorer,
		mailer:          mailer,
		notifier:        notifier,
		txManager:       txManager,
		now:             time.Now,
	}
}

// VerificationCode derives the code a payer attaches to a deposit: a prefix,
// the first eight hex digits of the user id and the issue time in base 36.
func VerificationCode(userID uuid.UUID, at time.Time) string {
	short := strings.ReplaceAll(userID.String(), "-", "")[:8]
	return strings.ToUpper(codePrefix + short + strconv.FormatInt(at.UnixMilli(), 36))
}

// Bonus returns the promotional bonus for amount issued at t.
func (s *Service) Bonus(amount float64, t time.Time) float64 {
	if !s.cfg.PromoActive(t) || amount < s.cfg.PromoMinAmount {
		return 0
	}
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(s.cfg.PromoRate)).Round(amountScale).InexactFloat64()
}

// PaymentURL builds the FaucetPay merchant checkout link for d.
func (s *Service) PaymentURL(d *domain.Deposit) string {
	q := url.Values{}
	q.Set("merchant_username", s.cfg.FaucetPayMerchant)
	q.Set("item_description", "Deposit "+d.VerificationCode)
	q.Set("amount1", decimal.NewFromFloat(d.Amount).Shift(unitShift).Round(0).String())
	q.Set("currency1", s.cfg.Currency)
	q.Set("currency2", s.cfg.Currency)
	q.Set("custom", d.VerificationCode)
	q.Set("ref", d.VerificationCode)
	q.Set("callback_url", s.cfg.PublicURL+"/deposit/callback")
	q.Set("success_url", s.cfg.PublicURL+"/deposit/success")
	q.Set("cancel_url", s.cfg.PublicURL+"/deposit/cancel")
	return s.cfg.FaucetPayAddress + "/merchant/webscr?" + q.Encode()
}

func (s *Service) issued(d *domain.Deposit, reused bool) *Issued {
	return &Issued{
		Deposit:     d,
		PaymentURL:  s.PaymentURL(d),
		PromoActive: s.cfg.PromoActive(d.CreatedAt),
		Recipient:   s.cfg.FaucetPayMerchant,
		Reused:      reused,
	}
}

// Issue returns the live pending deposit of the user or creates a new one.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, amount float64, email string) (*Issued, error) {
	if amount < s.cfg.DepositMin || amount > s.cfg.DepositMax {
		return nil, ErrInvalidAmount
	}

	existing, err := s.depositRepo.FindActivePending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		zap.L().Info("reusing pending deposit", zap.String("depositID", existing.ID.String()))
		return s.issued(existing, true), nil
	}

	now := s.now()
	d := &domain.Deposit{
		UserID:           userID,
		Amount:           amount,
		Bonus:            s.Bonus(amount, now),
		VerificationCode: VerificationCode(userID, now),
		Status:           domain.DepositPending,
		FaucetPayEmail:   email,
		ExpiresAt:        now.Add(s.cfg.DepositTTL),
		CreatedAt:        now,
	}
	if err := s.depositRepo.Create(ctx, d); err != nil {
		if !errors.Is(err, domain.ErrPendingDepositExists) {
			return nil, err
		}
		winner, findErr := s.depositRepo.FindActivePending(ctx, userID)
		if findErr != nil {
			return nil, findErr
		}
		if winner == nil {
			return nil, err
		}
		return s.issued(winner, true), nil
	}

	s.announce(ctx, d)
	zap.L().Info("deposit issued",
		zap.String("depositID", d.ID.String()),
		zap.String("code", d.VerificationCode),
		zap.Float64("amount", d.Amount),
		zap.Float64("bonus", d.Bonus),
	)
	return s.issued(d, false), nil
}

// announce tells the admins about a new deposit. Failures are logged only.
func (s *Service) announce(ctx context.Context, d *domain.Deposit) {
	msg := fmt.Sprintf("User %s requested a deposit of %s DOGE (code %s)",
		d.UserID, decimal.NewFromFloat(d.Amount).String(), d.VerificationCode)

	if err := s.notifier.NotifyAdmins(ctx, domain.NotificationDepositRequest, "New deposit request", msg, map[string]any{
		"deposit_id":        d.ID,
		"user_id":           d.UserID,
		"amount":            d.Amount,
		"verification_code": d.VerificationCode,
	}); err != nil {
		zap.L().Warn("failed to notify admins about deposit", zap.Error(err))
	}

	if s.cfg.AdminEmail == "" || !s.mailer.Enabled() {
		return
	}
	if err := s.mailer.Send(s.cfg.AdminEmail, "New deposit request "+d.VerificationCode, msg); err != nil {
		zap.L().Warn("failed to email admin about deposit", zap.String("depositID", d.ID.String()), zap.Error(err))
	}
}

// Expire moves every overdue pending deposit to expired.
func (s *Service) Expire(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.depositRepo.ExpirePending(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		zap.L().Info("expired pending deposits", zap.Int("count", len(ids)))
	}
	return ids, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error) {
	return s.depositRepo.ListByUser(ctx, userID, listLimit)
}

// Verify checks an on-chain payment to the deposit address and credits it
// once. Business rule failures come back as a result with Success unset.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	req.TxHash = strings.TrimSpace(req.TxHash)
	if req.TxHash == "" || req.ExpectedAmount <= 0 || req.UserID == uuid.Nil {
		return nil, ErrInvalidRequest
	}

	done, err := s.transactionRepo.IsCompleted(ctx, req.TxHash)
	if err != nil {
		return nil, err
	}
	if done {
		return failure(MsgAlreadyProcessed, 0), nil
	}

	tx, err := s.explorer.Transaction(ctx, req.TxHash)
	if errors.Is(err, explorer.ErrNotFound) {
		return failure(MsgNotFound, 0), nil
	}
	if err != nil {
		return nil, err
	}
	if tx.Confirmations < s.cfg.MinConfirmations {
		return failure(MsgNotConfirmed, tx.Confirmations), nil
	}

	received := tx.ReceivedBy(s.cfg.DepositAddress)
	if received.IsZero() {
		return failure(MsgNoOutput, tx.Confirmations), nil
	}
	threshold := decimal.NewFromFloat(req.ExpectedAmount).Mul(decimal.NewFromFloat(s.cfg.AmountTolerance))
	if received.LessThan(threshold) {
		zap.L().Info("deposit amount mismatch",
			zap.String("hash", req.TxHash),
			zap.String("received", received.String()),
			zap.Float64("expected", req.ExpectedAmount),
		)
		return failure(MsgAmountMismatch, tx.Confirmations), nil
	}

	credited, err := s.credit(ctx, req, received, tx.Confirmations)
	if errors.Is(err, domain.ErrTransactionCompleted) {
		return failure(MsgAlreadyProcessed, tx.Confirmations), nil
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("deposit credited",
		zap.String("hash", req.TxHash),
		zap.String("userID", req.UserID.String()),
		zap.String("credited", credited.String()),
	)
	return &VerifyResult{
		Success:        true,
		CreditedAmount: credited.InexactFloat64(),
		Confirmations:  tx.Confirmations,
		Message:        MsgVerified,
	}, nil
}

func (s *Service) credit(ctx context.Context, req VerifyRequest, received decimal.Decimal, confirmations int) (decimal.Decimal, error) {
	credited := received
	notes := fmt.Sprintf("verified on chain with %d confirmations", confirmations)

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.transactionRepo.CompleteDeposit(ctx, req.UserID, req.TxHash, received.InexactFloat64(), notes); err != nil {
			return err
		}

		// A payment only settles a deposit request it covers, so a small
		// transfer cannot collect the bonus of a larger request.
		deposit, err := s.depositRepo.CompletePending(ctx, req.UserID, received.InexactFloat64(), s.cfg.AmountTolerance)
		if err != nil {
			return err
		}
		if deposit != nil && deposit.Bonus > 0 {
			credited = received.Add(decimal.NewFromFloat(deposit.Bonus))
		}

		res, err := s.balanceRepo.InternalAddBalance(ctx, req.UserID, credited.InexactFloat64())
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%w: %s", errCreditRejected, res.Error)
		}

		return s.notifier.NotifyUser(ctx, req.UserID, domain.NotificationDeposit, "Deposit confirmed",
			fmt.Sprintf("%s DOGE has been credited to your balance", credited.String()),
			map[string]any{"tx_hash": req.TxHash, "amount": credited.InexactFloat64()},
		)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return credited, nil
}
