package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
)

type mocks struct {
	repo        *MockRepo
	balanceRepo *MockBalanceRepo
	notifier    *MockNotifier
	sender      *MockSender
	txManager   *pg.MockTXManager
	workerPool  *MockWorkerPoolI
}

func NewMock(t *testing.T) (*Processor, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		repo:        NewMockRepo(ctrl),
		balanceRepo: NewMockBalanceRepo(ctrl),
		notifier:    NewMockNotifier(ctrl),
		sender:      NewMockSender(ctrl),
		txManager:   pg.NewMockTXManager(ctrl),
		workerPool:  NewMockWorkerPoolI(ctrl),
	}
	cfg := &config.Config{PayoutInterval: 10 * time.Millisecond}
	p := New(cfg, m.repo, m.balanceRepo, m.notifier, m.sender, m.txManager)
	p.workerPool.Close()
	p.workerPool = m.workerPool
	p.retryInterval = time.Millisecond
	return p, m
}

func passThrough(tx *pg.MockTXManager) {
	tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

func withdrawal() domain.Transaction {
	return domain.Transaction{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Amount:      25,
		Type:        domain.TransactionWithdrawal,
		Status:      domain.TransactionPending,
		Destination: "shibe@example.com",
	}
}

func TestProcessor_RunDisabled(t *testing.T) {
	p, m := NewMock(t)
	m.sender.EXPECT().Enabled().Return(false)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled processor did not return")
	}
}

func TestProcessor_RunStopsOnCancel(t *testing.T) {
	p, m := NewMock(t)
	m.sender.EXPECT().Enabled().Return(true)
	m.repo.EXPECT().FindPendingWithdrawals(gomock.Any(), uint32(100)).Return(nil, nil).AnyTimes()
	m.workerPool.EXPECT().Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}

func TestProcessor_processWithdrawals(t *testing.T) {
	tests := []struct {
		name        string
		withdrawals []domain.Transaction
		findErr     error
		addTaskErr  error
		tasks       int
	}{
		{
			name:        "schedules every pending withdrawal",
			withdrawals: []domain.Transaction{withdrawal(), withdrawal()},
			tasks:       2,
		},
		{
			name:    "store failure",
			findErr: errors.New("db error"),
		},
		{
			name:        "pool rejects task",
			withdrawals: []domain.Transaction{withdrawal()},
			addTaskErr:  ErrPoolClosed,
			tasks:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := NewMock(t)

			m.repo.EXPECT().FindPendingWithdrawals(gomock.Any(), uint32(100)).Return(tt.withdrawals, tt.findErr)
			m.workerPool.EXPECT().AddTask(gomock.Any(), gomock.Any()).Return(tt.addTaskErr).Times(tt.tasks)

			p.processWithdrawals(context.Background())

			for _, w := range tt.withdrawals {
				_, inFlight := p.inFlight.Load(w.ID)
				assert.Equal(t, tt.addTaskErr == nil, inFlight)
			}
		})
	}
}

func TestProcessor_processWithdrawalsSkipsInFlight(t *testing.T) {
	p, m := NewMock(t)
	w := withdrawal()
	p.inFlight.Store(w.ID, struct{}{})

	m.repo.EXPECT().FindPendingWithdrawals(gomock.Any(), uint32(100)).Return([]domain.Transaction{w}, nil)
	m.workerPool.EXPECT().AddTask(gomock.Any(), gomock.Any()).Times(0)

	p.processWithdrawals(context.Background())
}

func TestProcessor_StaleSnapshotIsNotPaidTwice(t *testing.T) {
	p, m := NewMock(t)
	w := withdrawal()

	// Tasks run inline, so the second tick sees the same stale snapshot
	// after the first tick already settled the withdrawal.
	m.workerPool.EXPECT().AddTask(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, task Task) error {
		return task()
	}).Times(2)
	m.repo.EXPECT().FindPendingWithdrawals(gomock.Any(), uint32(100)).Return([]domain.Transaction{w}, nil).Times(2)
	gomock.InOrder(
		m.repo.EXPECT().ClaimWithdrawal(gomock.Any(), w.ID).Return(true, nil),
		m.repo.EXPECT().ClaimWithdrawal(gomock.Any(), w.ID).Return(false, nil),
	)
	m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(&SendResult{PayoutID: 81}, nil).Times(1)
	m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionCompleted, "faucetpay payout 81").Return(true, nil)
	m.notifier.EXPECT().NotifyUser(gomock.Any(), w.UserID, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	p.processWithdrawals(context.Background())
	p.processWithdrawals(context.Background())
}

func TestProcessor_handleWithdrawal(t *testing.T) {
	tests := []struct {
		name        string
		unclaimed   bool
		claimErr    error
		prepareMock func(m *mocks, w domain.Transaction)
		expectedErr bool
	}{
		{
			name: "paid out",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(&SendResult{PayoutID: 77}, nil)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionCompleted, "faucetpay payout 77").Return(true, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), w.UserID, domain.NotificationWithdrawal, "Withdrawal sent", gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:        "claimed by another tick",
			unclaimed:   true,
			prepareMock: func(m *mocks, w domain.Transaction) {},
		},
		{
			name:        "claim store failure",
			claimErr:    errors.New("db error"),
			prepareMock: func(m *mocks, w domain.Transaction) {},
			expectedErr: true,
		},
		{
			name: "paid out after transient failures",
			prepareMock: func(m *mocks, w domain.Transaction) {
				gomock.InOrder(
					m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, &TransientError{HTTPStatus: 429}),
					m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, &TransientError{HTTPStatus: 503}),
					m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(&SendResult{PayoutID: 78}, nil),
				)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionCompleted, "faucetpay payout 78").Return(true, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), w.UserID, domain.NotificationWithdrawal, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "retries exhausted put the withdrawal back in the queue",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, &TransientError{HTTPStatus: 502}).Times(maxRetries)
				m.repo.EXPECT().ReleaseWithdrawal(gomock.Any(), w.ID, "faucetpay unavailable: http 502").Return(true, nil)
			},
			expectedErr: true,
		},
		{
			name: "unanswered payout stays processing",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, errors.New("connection reset")).Times(1)
			},
			expectedErr: true,
		},
		{
			name: "rejected payout is refunded",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, &RejectedError{Status: 456, Message: "invalid address"})
				passThrough(m.txManager)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionFailed, "invalid address").Return(true, nil)
				m.balanceRepo.EXPECT().InternalAddBalance(gomock.Any(), w.UserID, w.Amount).Return(&domain.BalanceResult{Success: true, NewBalance: 40}, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), w.UserID, domain.NotificationWithdrawal, "Withdrawal failed", gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "rejected payout already finished elsewhere",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, &RejectedError{Status: 456, Message: "invalid address"})
				passThrough(m.txManager)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionFailed, "invalid address").Return(false, nil)
			},
		},
		{
			name: "refund rejected by store",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(nil, &RejectedError{Status: 456, Message: "invalid address"})
				passThrough(m.txManager)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionFailed, "invalid address").Return(true, nil)
				m.balanceRepo.EXPECT().InternalAddBalance(gomock.Any(), w.UserID, w.Amount).Return(&domain.BalanceResult{Success: false, Error: "profile not found"}, nil)
			},
			expectedErr: true,
		},
		{
			name: "completion store failure is not sent again",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(&SendResult{PayoutID: 79}, nil).Times(1)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionCompleted, gomock.Any()).Return(false, errors.New("db error"))
			},
			expectedErr: true,
		},
		{
			name: "notification failure does not fail the payout",
			prepareMock: func(m *mocks, w domain.Transaction) {
				m.sender.EXPECT().Send(gomock.Any(), w.Destination, w.Amount).Return(&SendResult{PayoutID: 80}, nil)
				m.repo.EXPECT().FinishWithdrawal(gomock.Any(), w.ID, domain.TransactionCompleted, gomock.Any()).Return(true, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), w.UserID, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := NewMock(t)
			w := withdrawal()
			m.repo.EXPECT().ClaimWithdrawal(gomock.Any(), w.ID).Return(!tt.unclaimed && tt.claimErr == nil, tt.claimErr)
			tt.prepareMock(m, w)

			err := p.handleWithdrawal(context.Background(), w)
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessor_handleWithdrawalCanceled(t *testing.T) {
	p, _ := NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.handleWithdrawal(ctx, withdrawal())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessor_sendCanceledReleasesClaim(t *testing.T) {
	p, m := NewMock(t)
	w := withdrawal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.repo.EXPECT().ReleaseWithdrawal(gomock.Any(), w.ID, "payout interrupted").Return(true, nil)

	err := p.send(ctx, w)
	assert.ErrorIs(t, err, context.Canceled)
}
