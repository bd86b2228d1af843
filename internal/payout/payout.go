// Package payout settles pending withdrawals through FaucetPay.
package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

//go:generate mockgen -source=payout.go -destination=mock_payout.go -package=payout

type Repo interface {
	FindPendingWithdrawals(ctx context.Context, limit uint32) ([]domain.Transaction, error)
	ClaimWithdrawal(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseWithdrawal(ctx context.Context, id uuid.UUID, notes string) (bool, error)
	FinishWithdrawal(ctx context.Context, id uuid.UUID, status, notes string) (bool, error)
}

type BalanceRepo interface {
	InternalAddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, kind, title, message string, data any) error
}

type Sender interface {
	Enabled() bool
	Send(ctx context.Context, to string, amount float64) (*SendResult, error)
}

const (
	maxRetries    = 3
	retryInterval = time.Second
)

var (
	ErrPoolClosed     = errors.New("worker pool closed")
	errRefundRejected = errors.New("refund rejected")
)

type Processor struct {
	repo        Repo
	balanceRepo BalanceRepo
	notifier    Notifier
	sender      Sender
	txManager   pg.TXManager
	workerPool  WorkerPoolI

	limit          uint32
	updateInterval time.Duration
	retryInterval  time.Duration
	inFlight       sync.Map
}

func New(
	cfg *config.Config,
	repo Repo,
	balanceRepo BalanceRepo,
	notifier Notifier,
	sender Sender,
	txManager pg.TXManager,
) *Processor {
	return &Processor{
		repo:           repo,
		balanceRepo:    balanceRepo,
		notifier:       notifier,
		sender:         sender,
		txManager:      txManager,
		workerPool:     NewWorkerPool(4),
		limit:          100,
		updateInterval: cfg.PayoutInterval,
		retryInterval:  retryInterval,
	}
}

// Run polls for pending withdrawals until ctx is done.
func (p *Processor) Run(ctx context.Context) {
	if !p.sender.Enabled() {
		zap.L().Warn("payout processor disabled: no FaucetPay api key")
		return
	}
	zap.L().Info("payout processor started", zap.Duration("interval", p.updateInterval))

	ticker := time.NewTicker(p.updateInterval)
	defer ticker.Stop()
	defer p.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("payout processor stopped")
			return
		case <-ticker.C:
			p.processWithdrawals(ctx)
		}
	}
}

func (p *Processor) processWithdrawals(ctx context.Context) {
	withdrawals, err := p.repo.FindPendingWithdrawals(ctx, p.limit)
	if err != nil {
		zap.L().Error("failed to fetch pending withdrawals", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, w := range withdrawals {
		w := w

		if _, loaded := p.inFlight.LoadOrStore(w.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := p.workerPool.AddTask(ctx, func() error {
				defer p.inFlight.Delete(w.ID)
				return p.handleWithdrawal(ctx, w)
			})
			if err != nil {
				p.inFlight.Delete(w.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("error scheduling payouts", zap.Error(err))
	}
}

// handleWithdrawal claims the withdrawal and pays it out. A snapshot that
// went stale while another tick was sending loses the claim and is skipped.
func (p *Processor) handleWithdrawal(ctx context.Context, w domain.Transaction) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	claimed, err := p.repo.ClaimWithdrawal(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("failed to claim withdrawal %s: %w", w.ID, err)
	}
	if !claimed {
		zap.L().Debug("withdrawal claimed elsewhere", zap.String("withdrawalID", w.ID.String()))
		return nil
	}
	return p.send(ctx, w)
}

func (p *Processor) send(ctx context.Context, w domain.Transaction) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			p.release(w, err)
			return ctx.Err()
		}

		var res *SendResult
		res, err = p.sender.Send(ctx, w.Destination, w.Amount)
		if err == nil {
			return p.complete(ctx, w, res)
		}

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return p.fail(ctx, w, rejected.Message)
		}
		// Without a reply the payout may have gone through, so the row stays
		// processing until an operator checks it.
		var transient *TransientError
		if !errors.As(err, &transient) {
			zap.L().Error("withdrawal left processing after unanswered payout",
				zap.String("withdrawalID", w.ID.String()), zap.Error(err))
			return fmt.Errorf("payout of withdrawal %s unanswered: %w", w.ID, err)
		}

		zap.L().Warn("payout attempt failed",
			zap.String("withdrawalID", w.ID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				p.release(w, err)
				return ctx.Err()
			case <-time.After(p.retryInterval * time.Duration(attempt)):
			}
		}
	}
	p.release(w, err)
	return fmt.Errorf("failed to pay out withdrawal %s after %d retries: %w", w.ID, maxRetries, err)
}

// release puts a withdrawal FaucetPay never accepted back in the queue.
func (p *Processor) release(w domain.Transaction, lastErr error) {
	notes := "payout interrupted"
	if lastErr != nil {
		notes = lastErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, rerr := p.repo.ReleaseWithdrawal(ctx, w.ID, notes); rerr != nil {
		zap.L().Error("failed to release withdrawal", zap.String("withdrawalID", w.ID.String()), zap.Error(rerr))
	}
}

func (p *Processor) complete(ctx context.Context, w domain.Transaction, res *SendResult) error {
	notes := fmt.Sprintf("faucetpay payout %d", res.PayoutID)
	ok, err := p.repo.FinishWithdrawal(ctx, w.ID, domain.TransactionCompleted, notes)
	if err != nil {
		return fmt.Errorf("failed to complete withdrawal %s: %w", w.ID, err)
	}
	if !ok {
		zap.L().Warn("withdrawal already finished", zap.String("withdrawalID", w.ID.String()))
		return nil
	}

	zap.L().Info("withdrawal paid out", zap.String("withdrawalID", w.ID.String()), zap.Int64("payoutID", res.PayoutID))
	p.notify(ctx, w, "Withdrawal sent",
		fmt.Sprintf("%.8f DOGE was sent to %s", w.Amount, w.Destination),
		map[string]any{"transaction_id": w.ID, "payout_id": res.PayoutID, "status": domain.TransactionCompleted})
	return nil
}

// fail marks the withdrawal failed and refunds it in the same transaction,
// so a withdrawal is refunded at most once.
func (p *Processor) fail(ctx context.Context, w domain.Transaction, reason string) error {
	refunded := false
	err := p.txManager.Begin(ctx, func(ctx context.Context) error {
		ok, err := p.repo.FinishWithdrawal(ctx, w.ID, domain.TransactionFailed, reason)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		res, err := p.balanceRepo.InternalAddBalance(ctx, w.UserID, w.Amount)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%w: %s", errRefundRejected, res.Error)
		}
		refunded = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to refund withdrawal %s: %w", w.ID, err)
	}
	if !refunded {
		zap.L().Warn("withdrawal already finished", zap.String("withdrawalID", w.ID.String()))
		return nil
	}

	zap.L().Info("withdrawal failed and refunded", zap.String("withdrawalID", w.ID.String()), zap.String("reason", reason))
	p.notify(ctx, w, "Withdrawal failed",
		fmt.Sprintf("Withdrawal of %.8f DOGE failed: %s. The amount was returned to your balance.", w.Amount, reason),
		map[string]any{"transaction_id": w.ID, "status": domain.TransactionFailed, "reason": reason})
	return nil
}

func (p *Processor) notify(ctx context.Context, w domain.Transaction, title, message string, data map[string]any) {
	if err := p.notifier.NotifyUser(ctx, w.UserID, domain.NotificationWithdrawal, title, message, data); err != nil {
		zap.L().Warn("failed to notify about withdrawal", zap.String("withdrawalID", w.ID.String()), zap.Error(err))
	}
}
