package depositservice

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/explorer"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

const depositAddress = "DDepositAddr"

var fixedNow = time.UnixMilli(1700000000000).UTC()

type mocks struct {
	depositRepo     *MockDepositRepo
	transactionRepo *MockTransactionRepo
	balanceRepo     *MockBalanceRepo
	explorer        *MockExplorer
	mailer          *MockMailer
	notifier        *MockNotifier
	txManager       *pg.MockTXManager
}

func testConfig() *config.Config {
	return &config.Config{
		DepositMin:        0.1,
		DepositMax:        100,
		DepositTTL:        time.Hour,
		PromoStart:        fixedNow.Add(-24 * time.Hour),
		PromoEnd:          fixedNow.Add(24 * time.Hour),
		PromoRate:         0.25,
		PromoMinAmount:    3,
		DepositAddress:    depositAddress,
		AmountTolerance:   0.95,
		MinConfirmations:  1,
		FaucetPayAddress:  "https://faucetpay.io",
		FaucetPayMerchant: "dogefaucet",
		Currency:          "DOGE",
		PublicURL:         "https://faucet.example.com",
		AdminEmail:        "admin@example.com",
	}
}

func NewMock(t *testing.T, cfg *config.Config) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		depositRepo:     NewMockDepositRepo(ctrl),
		transactionRepo: NewMockTransactionRepo(ctrl),
		balanceRepo:     NewMockBalanceRepo(ctrl),
		explorer:        NewMockExplorer(ctrl),
		mailer:          NewMockMailer(ctrl),
		notifier:        NewMockNotifier(ctrl),
		txManager:       pg.NewMockTXManager(ctrl),
	}
	service := New(cfg, m.depositRepo, m.transactionRepo, m.balanceRepo, m.explorer, m.mailer, m.notifier, m.txManager)
	service.now = func() time.Time { return fixedNow }
	return service, m
}

func passThrough(tx *pg.MockTXManager) {
	tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

func TestVerificationCode(t *testing.T) {
	userID := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	assert.Equal(t, "DEP0F8FAD5BLOYW3V28", VerificationCode(userID, fixedNow))
}

func TestBonus(t *testing.T) {
	active, _ := NewMock(t, testConfig())

	inactiveCfg := testConfig()
	inactiveCfg.PromoEnd = fixedNow.Add(-time.Hour)
	inactive, _ := NewMock(t, inactiveCfg)

	tests := []struct {
		name     string
		service  *Service
		amount   float64
		expected float64
	}{
		{name: "Promo active", service: active, amount: 10, expected: 2.5},
		{name: "Promo active at threshold", service: active, amount: 3, expected: 0.75},
		{name: "Promo active below threshold", service: active, amount: 2.99, expected: 0},
		{name: "Promo inactive", service: inactive, amount: 50, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.service.Bonus(tt.amount, fixedNow))
		})
	}
}

func TestPaymentURL(t *testing.T) {
	service, _ := NewMock(t, testConfig())

	raw := service.PaymentURL(&domain.Deposit{Amount: 10, VerificationCode: "DEPCODE"})
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "faucetpay.io", u.Host)
	assert.Equal(t, "/merchant/webscr", u.Path)
	q := u.Query()
	assert.Equal(t, "dogefaucet", q.Get("merchant_username"))
	assert.Equal(t, "1000000000", q.Get("amount1"))
	assert.Equal(t, "DOGE", q.Get("currency1"))
	assert.Equal(t, "DOGE", q.Get("currency2"))
	assert.Equal(t, "DEPCODE", q.Get("custom"))
	assert.Equal(t, "DEPCODE", q.Get("ref"))
	assert.Equal(t, "https://faucet.example.com/deposit/success", q.Get("success_url"))
	assert.Equal(t, "https://faucet.example.com/deposit/cancel", q.Get("cancel_url"))
	assert.NotEmpty(t, q.Get("callback_url"))
}

func TestIssue(t *testing.T) {
	userID := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	depositID := uuid.New()
	existing := &domain.Deposit{
		ID: depositID, UserID: userID, Amount: 10, Bonus: 2.5, VerificationCode: "DEPOLD",
		Status: domain.DepositPending, ExpiresAt: fixedNow.Add(30 * time.Minute), CreatedAt: fixedNow.Add(-30 * time.Minute),
	}

	created := func(m *mocks) {
		m.depositRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d *domain.Deposit) error {
			d.ID = depositID
			return nil
		})
	}

	tests := []struct {
		name          string
		amount        float64
		prepareMock   func(m *mocks)
		expectedErr   error
		expectReused  bool
		expectedCode  string
		expectedBonus float64
		expectedTotal float64
	}{
		{
			name:        "Amount below range",
			amount:      0.09,
			prepareMock: func(m *mocks) {},
			expectedErr: ErrInvalidAmount,
		},
		{
			name:        "Amount above range",
			amount:      100.01,
			prepareMock: func(m *mocks) {},
			expectedErr: ErrInvalidAmount,
		},
		{
			name:   "Minimum amount accepted",
			amount: 0.1,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, nil)
				created(m)
				m.notifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.mailer.EXPECT().Enabled().Return(false)
			},
			expectedCode:  "DEP0F8FAD5BLOYW3V28",
			expectedTotal: 0.1,
		},
		{
			name:   "Maximum amount accepted",
			amount: 100,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, nil)
				created(m)
				m.notifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.mailer.EXPECT().Enabled().Return(false)
			},
			expectedCode:  "DEP0F8FAD5BLOYW3V28",
			expectedBonus: 25,
			expectedTotal: 125,
		},
		{
			name:   "Reuses live pending deposit",
			amount: 50,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(existing, nil)
			},
			expectReused:  true,
			expectedCode:  "DEPOLD",
			expectedBonus: 2.5,
			expectedTotal: 12.5,
		},
		{
			name:   "Creates deposit with bonus",
			amount: 10,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, nil)
				created(m)
				m.notifier.EXPECT().NotifyAdmins(gomock.Any(), domain.NotificationDepositRequest, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.mailer.EXPECT().Enabled().Return(true)
				m.mailer.EXPECT().Send("admin@example.com", gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedCode:  "DEP0F8FAD5BLOYW3V28",
			expectedBonus: 2.5,
			expectedTotal: 12.5,
		},
		{
			name:   "Mail failure does not fail issuance",
			amount: 10,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, nil)
				created(m)
				m.notifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db error"))
				m.mailer.EXPECT().Enabled().Return(true)
				m.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
			},
			expectedCode:  "DEP0F8FAD5BLOYW3V28",
			expectedBonus: 2.5,
			expectedTotal: 12.5,
		},
		{
			name:   "Mailer disabled",
			amount: 2,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, nil)
				created(m)
				m.notifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.mailer.EXPECT().Enabled().Return(false)
			},
			expectedCode:  "DEP0F8FAD5BLOYW3V28",
			expectedTotal: 2,
		},
		{
			name:   "Concurrent issuance returns the winner",
			amount: 10,
			prepareMock: func(m *mocks) {
				gomock.InOrder(
					m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, nil),
					m.depositRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrPendingDepositExists),
					m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(existing, nil),
				)
			},
			expectReused:  true,
			expectedCode:  "DEPOLD",
			expectedBonus: 2.5,
			expectedTotal: 12.5,
		},
		{
			name:   "Repository error",
			amount: 10,
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().FindActivePending(gomock.Any(), userID).Return(nil, errors.New("db error"))
			},
			expectedErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t, testConfig())
			tt.prepareMock(m)

			issued, err := service.Issue(context.Background(), userID, tt.amount, "")
			if tt.expectedErr != nil {
				assert.EqualError(t, err, tt.expectedErr.Error())
				assert.Nil(t, issued)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectReused, issued.Reused)
			assert.Equal(t, depositID, issued.Deposit.ID)
			assert.Equal(t, tt.expectedCode, issued.Deposit.VerificationCode)
			assert.Equal(t, tt.expectedBonus, issued.Deposit.Bonus)
			assert.Equal(t, tt.expectedTotal, issued.TotalCredited())
			assert.Equal(t, "dogefaucet", issued.Recipient)
			assert.Contains(t, issued.PaymentURL, "custom="+tt.expectedCode)
			if !tt.expectReused {
				assert.Equal(t, fixedNow.Add(time.Hour), issued.Deposit.ExpiresAt)
				assert.Equal(t, domain.DepositPending, issued.Deposit.Status)
				assert.True(t, issued.PromoActive)
			}
		})
	}
}

func TestExpire(t *testing.T) {
	service, m := NewMock(t, testConfig())
	first := uuid.New()

	gomock.InOrder(
		m.depositRepo.EXPECT().ExpirePending(gomock.Any()).Return([]uuid.UUID{first}, nil),
		m.depositRepo.EXPECT().ExpirePending(gomock.Any()).Return([]uuid.UUID{}, nil),
	)

	ids, err := service.Expire(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first}, ids)

	ids, err = service.Expire(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestList(t *testing.T) {
	service, m := NewMock(t, testConfig())
	userID := uuid.New()
	m.depositRepo.EXPECT().ListByUser(gomock.Any(), userID, listLimit).Return([]domain.Deposit{{UserID: userID}}, nil)

	deposits, err := service.List(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, deposits, 1)
}

func chainTx(confirmations int, outputs ...explorer.Output) *explorer.Transaction {
	return &explorer.Transaction{Hash: "abc", Confirmations: confirmations, Outputs: outputs}
}

func TestVerify(t *testing.T) {
	userID := uuid.New()
	req := VerifyRequest{TxHash: "abc", ExpectedAmount: 10, UserID: userID}
	tenCoins := explorer.Output{Value: 1000000000, Addresses: []string{depositAddress}}

	tests := []struct {
		name        string
		req         VerifyRequest
		prepareMock func(m *mocks)
		expected    *VerifyResult
		expectedErr error
	}{
		{
			name:        "Missing hash",
			req:         VerifyRequest{ExpectedAmount: 10, UserID: userID},
			prepareMock: func(m *mocks) {},
			expectedErr: ErrInvalidRequest,
		},
		{
			name: "Already processed skips the explorer",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(true, nil)
			},
			expected: &VerifyResult{Message: MsgAlreadyProcessed},
		},
		{
			name: "Not found on chain",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(nil, explorer.ErrNotFound)
			},
			expected: &VerifyResult{Message: MsgNotFound},
		},
		{
			name: "Explorer unreachable",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(nil, errors.New("timeout"))
			},
			expectedErr: errors.New("timeout"),
		},
		{
			name: "Not confirmed",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(chainTx(0, tenCoins), nil)
			},
			expected: &VerifyResult{Message: MsgNotConfirmed},
		},
		{
			name: "No output to deposit address",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").
					Return(chainTx(3, explorer.Output{Value: 1000000000, Addresses: []string{"DElse"}}), nil)
			},
			expected: &VerifyResult{Message: MsgNoOutput, Confirmations: 3},
		},
		{
			name: "Amount below tolerance",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").
					Return(chainTx(2, explorer.Output{Value: 949999999, Addresses: []string{depositAddress}}), nil)
			},
			expected: &VerifyResult{Message: MsgAmountMismatch, Confirmations: 2},
		},
		{
			name: "Exact amount is credited",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(chainTx(2, tenCoins), nil)
				passThrough(m.txManager)
				m.transactionRepo.EXPECT().CompleteDeposit(gomock.Any(), userID, "abc", 10.0, gomock.Any()).Return(uuid.New(), nil)
				m.depositRepo.EXPECT().CompletePending(gomock.Any(), userID, 10.0, 0.95).Return(nil, nil)
				m.balanceRepo.EXPECT().InternalAddBalance(gomock.Any(), userID, 10.0).
					Return(&domain.BalanceResult{Success: true, NewBalance: 10}, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), userID, domain.NotificationDeposit, "Deposit confirmed", gomock.Any(), gomock.Any()).
					Return(nil)
			},
			expected: &VerifyResult{Success: true, CreditedAmount: 10, Confirmations: 2, Message: MsgVerified},
		},
		{
			name: "Split outputs within tolerance plus deposit bonus",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(chainTx(5,
					explorer.Output{Value: 500000000, Addresses: []string{depositAddress}},
					explorer.Output{Value: 450000000, Addresses: []string{depositAddress}},
				), nil)
				passThrough(m.txManager)
				m.transactionRepo.EXPECT().CompleteDeposit(gomock.Any(), userID, "abc", 9.5, gomock.Any()).Return(uuid.New(), nil)
				m.depositRepo.EXPECT().CompletePending(gomock.Any(), userID, 9.5, 0.95).Return(&domain.Deposit{Amount: 10, Bonus: 2.5}, nil)
				m.balanceRepo.EXPECT().InternalAddBalance(gomock.Any(), userID, 12.0).
					Return(&domain.BalanceResult{Success: true, NewBalance: 12}, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), userID, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			expected: &VerifyResult{Success: true, CreditedAmount: 12, Confirmations: 5, Message: MsgVerified},
		},
		{
			name: "Small payment leaves a larger request pending",
			req:  VerifyRequest{TxHash: "abc", ExpectedAmount: 0.1, UserID: userID},
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").
					Return(chainTx(2, explorer.Output{Value: 10000000, Addresses: []string{depositAddress}}), nil)
				passThrough(m.txManager)
				m.transactionRepo.EXPECT().CompleteDeposit(gomock.Any(), userID, "abc", 0.1, gomock.Any()).Return(uuid.New(), nil)
				// The live 100 DOGE request is not covered, so no deposit matches.
				m.depositRepo.EXPECT().CompletePending(gomock.Any(), userID, 0.1, 0.95).Return(nil, nil)
				m.balanceRepo.EXPECT().InternalAddBalance(gomock.Any(), userID, 0.1).
					Return(&domain.BalanceResult{Success: true, NewBalance: 0.1}, nil)
				m.notifier.EXPECT().NotifyUser(gomock.Any(), userID, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			expected: &VerifyResult{Success: true, CreditedAmount: 0.1, Confirmations: 2, Message: MsgVerified},
		},
		{
			name: "Concurrent completion loses the race",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(chainTx(2, tenCoins), nil)
				passThrough(m.txManager)
				m.transactionRepo.EXPECT().CompleteDeposit(gomock.Any(), userID, "abc", 10.0, gomock.Any()).
					Return(uuid.Nil, domain.ErrTransactionCompleted)
			},
			expected: &VerifyResult{Message: MsgAlreadyProcessed, Confirmations: 2},
		},
		{
			name: "Credit refused by the store",
			req:  req,
			prepareMock: func(m *mocks) {
				m.transactionRepo.EXPECT().IsCompleted(gomock.Any(), "abc").Return(false, nil)
				m.explorer.EXPECT().Transaction(gomock.Any(), "abc").Return(chainTx(2, tenCoins), nil)
				passThrough(m.txManager)
				m.transactionRepo.EXPECT().CompleteDeposit(gomock.Any(), userID, "abc", 10.0, gomock.Any()).Return(uuid.New(), nil)
				m.depositRepo.EXPECT().CompletePending(gomock.Any(), userID, 10.0, 0.95).Return(nil, nil)
				m.balanceRepo.EXPECT().InternalAddBalance(gomock.Any(), userID, 10.0).
					Return(&domain.BalanceResult{Success: false, Error: "Profile not found"}, nil)
			},
			expectedErr: errCreditRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t, testConfig())
			tt.prepareMock(m)

			result, err := service.Verify(context.Background(), tt.req)
			if tt.expectedErr != nil {
				assert.Error(t, err)
				if !errors.Is(err, tt.expectedErr) {
					assert.EqualError(t, err, tt.expectedErr.Error())
				}
				assert.Nil(t, result)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
