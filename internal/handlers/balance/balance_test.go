package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/dto"
	"github.com/GlebRadaev/dogefaucet/internal/feed"
	"github.com/GlebRadaev/dogefaucet/internal/service/balanceservice"
	"github.com/GlebRadaev/dogefaucet/pkg/auth"
	"github.com/GlebRadaev/dogefaucet/pkg/utils"
)

var userID = uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

func NewMock(t *testing.T) (*BalanceHandler, *MockService, *feed.Hub) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	hub := feed.NewHub()
	handler := New(service, hub)
	return handler, service, hub
}

func callerCtx() context.Context {
	return auth.WithCaller(context.Background(), auth.Caller{ID: userID})
}

func request(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	return r.WithContext(callerCtx())
}

func decodeFailure(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	var resp utils.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestGetBalanceHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		prepareMock   func()
		expectedCode  int
		expectedError string
		expectedBody  dto.BalanceResponseDTO
	}{
		{
			name: "Successful retrieval",
			prepareMock: func() {
				service.EXPECT().GetBalance(callerCtx(), userID).Return(&domain.Profile{
					UserID: userID, Balance: 100.5, TotalEarned: 150.25, ReferralCode: "K7Q2M9XA",
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.BalanceResponseDTO{Success: true, Balance: 100.5, TotalEarned: 150.25, ReferralCode: "K7Q2M9XA"},
		},
		{
			name: "Profile missing",
			prepareMock: func() {
				service.EXPECT().GetBalance(callerCtx(), userID).Return(nil, balanceservice.ErrProfileNotFound)
			},
			expectedCode:  http.StatusOK,
			expectedError: "Profile not found",
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().GetBalance(callerCtx(), userID).Return(nil, errors.New("error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.GetBalance(w, request(http.MethodGet, "/api/user/balance", ""))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeFailure(t, w).Error)
				return
			}
			var body dto.BalanceResponseDTO
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.expectedBody, body)
		})
	}
}

func TestClaimMiningHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedBody dto.MiningClaimResponseDTO
	}{
		{
			name: "Reward credited",
			prepareMock: func() {
				service.EXPECT().ClaimMiningReward(callerCtx(), userID).Return(&domain.MiningResult{
					BalanceResult: domain.BalanceResult{Success: true, NewBalance: 10.24},
					Reward:        0.24,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.MiningClaimResponseDTO{Success: true, NewBalance: 10.24, Reward: 0.24},
		},
		{
			name: "Nothing to claim",
			prepareMock: func() {
				service.EXPECT().ClaimMiningReward(callerCtx(), userID).Return(&domain.MiningResult{
					BalanceResult: domain.BalanceResult{Success: false, NewBalance: 10, Error: "Nothing to claim yet"},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.MiningClaimResponseDTO{Success: false, NewBalance: 10, Error: "Nothing to claim yet"},
		},
		{
			name: "Store failure",
			prepareMock: func() {
				service.EXPECT().ClaimMiningReward(callerCtx(), userID).Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.ClaimMining(w, request(http.MethodPost, "/api/user/balance/mining/claim", ""))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body dto.MiningClaimResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestApplyReferralHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
		expectedBody  *dto.BalanceResultDTO
	}{
		{
			name: "Code applied",
			body: `{"code":"ab12cd34"}`,
			prepareMock: func() {
				service.EXPECT().ApplyReferralCode(callerCtx(), userID, "ab12cd34").
					Return(&domain.BalanceResult{Success: true, NewBalance: 1}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.BalanceResultDTO{Success: true, NewBalance: 1},
		},
		{
			name: "Code refused by store",
			body: `{"code":"SELF0000"}`,
			prepareMock: func() {
				service.EXPECT().ApplyReferralCode(callerCtx(), userID, "SELF0000").
					Return(&domain.BalanceResult{Success: false, Error: "Cannot use your own referral code"}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.BalanceResultDTO{Success: false, Error: "Cannot use your own referral code"},
		},
		{
			name: "Empty code",
			body: `{"code":""}`,
			prepareMock: func() {
				service.EXPECT().ApplyReferralCode(callerCtx(), userID, "").Return(nil, balanceservice.ErrInvalidReferralCode)
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid referral code",
		},
		{
			name:          "Invalid request body",
			body:          `{"code":`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.ApplyReferral(w, request(http.MethodPost, "/api/user/balance/referral", tt.body))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeFailure(t, w).Error)
				return
			}
			var body dto.BalanceResultDTO
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, *tt.expectedBody, body)
		})
	}
}

func TestWithdrawHandler(t *testing.T) {
	handler, service, _ := NewMock(t)
	withdrawalID := uuid.New()

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful withdrawal",
			body: `{"amount":25.5,"faucetpay_email":"user@example.com"}`,
			prepareMock: func() {
				service.EXPECT().Withdraw(callerCtx(), userID, 25.5, "user@example.com").Return(&domain.Transaction{
					ID: withdrawalID, Amount: 25.5, Status: domain.TransactionPending,
				}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Invalid request body",
			body:          `{"amount":invalid}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
		{
			name:          "Missing destination",
			body:          `{"amount":25.5}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "faucetpay_email is required",
		},
		{
			name: "Below minimum",
			body: `{"amount":0.5,"faucetpay_email":"user@example.com"}`,
			prepareMock: func() {
				service.EXPECT().Withdraw(callerCtx(), userID, 0.5, "user@example.com").Return(nil, balanceservice.ErrInvalidAmount)
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Amount below minimum withdrawal",
		},
		{
			name: "Insufficient balance",
			body: `{"amount":25.5,"faucetpay_email":"user@example.com"}`,
			prepareMock: func() {
				service.EXPECT().Withdraw(callerCtx(), userID, 25.5, "user@example.com").Return(nil, balanceservice.ErrInsufficientBalance)
			},
			expectedCode:  http.StatusOK,
			expectedError: "Insufficient balance",
		},
		{
			name: "Rejected by store",
			body: `{"amount":25.5,"faucetpay_email":"user@example.com"}`,
			prepareMock: func() {
				service.EXPECT().Withdraw(callerCtx(), userID, 25.5, "user@example.com").
					Return(nil, fmt.Errorf("%w: %s", balanceservice.ErrRejected, "Profile not found"))
			},
			expectedCode:  http.StatusOK,
			expectedError: "Profile not found",
		},
		{
			name: "Internal server error",
			body: `{"amount":25.5,"faucetpay_email":"user@example.com"}`,
			prepareMock: func() {
				service.EXPECT().Withdraw(callerCtx(), userID, 25.5, "user@example.com").Return(nil, errors.New("error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.Withdraw(w, request(http.MethodPost, "/api/user/balance/withdraw", tt.body))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				resp := decodeFailure(t, w)
				assert.False(t, resp.Success)
				assert.Equal(t, tt.expectedError, resp.Error)
				return
			}
			var body dto.WithdrawResponseDTO
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, dto.WithdrawResponseDTO{Success: true, WithdrawalID: withdrawalID, Amount: 25.5, Status: "pending"}, body)
		})
	}
}

func TestGetWithdrawalsHandler(t *testing.T) {
	handler, service, _ := NewMock(t)
	now := time.Date(2024, 12, 9, 16, 9, 57, 0, time.UTC)
	id := uuid.New()

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedBody []dto.WithdrawalDTO
	}{
		{
			name: "Successful retrieval",
			prepareMock: func() {
				service.EXPECT().GetWithdrawals(callerCtx(), userID).Return([]domain.Transaction{
					{ID: id, Amount: 25.5, Status: "completed", Destination: "user@example.com", CreatedAt: now, ProcessedAt: &now},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: []dto.WithdrawalDTO{
				{ID: id, Amount: 25.5, Status: "completed", Destination: "user@example.com", CreatedAt: now, ProcessedAt: &now},
			},
		},
		{
			name: "No withdrawals",
			prepareMock: func() {
				service.EXPECT().GetWithdrawals(callerCtx(), userID).Return(nil, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().GetWithdrawals(callerCtx(), userID).Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.GetWithdrawals(w, request(http.MethodGet, "/api/user/withdrawals", ""))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body []dto.WithdrawalDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}

func TestAdminBalanceHandlers(t *testing.T) {
	handler, service, _ := NewMock(t)
	target := uuid.New()

	tests := []struct {
		name          string
		call          func(w http.ResponseWriter, r *http.Request)
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
		expectedBody  *dto.BalanceResultDTO
	}{
		{
			name: "Credit another user",
			call: handler.AdminAddBalance,
			body: fmt.Sprintf(`{"user_id":%q,"amount":5}`, target),
			prepareMock: func() {
				service.EXPECT().AddBalance(callerCtx(), target, 5.0).Return(&domain.BalanceResult{Success: true, NewBalance: 15}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.BalanceResultDTO{Success: true, NewBalance: 15},
		},
		{
			name: "Credit defaults to caller",
			call: handler.AdminAddBalance,
			body: `{"amount":5}`,
			prepareMock: func() {
				service.EXPECT().AddBalance(callerCtx(), userID, 5.0).Return(&domain.BalanceResult{Success: true, NewBalance: 5}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.BalanceResultDTO{Success: true, NewBalance: 5},
		},
		{
			name: "Debit insufficient",
			call: handler.AdminSubtractBalance,
			body: `{"amount":500}`,
			prepareMock: func() {
				service.EXPECT().SubtractBalance(callerCtx(), userID, 500.0).
					Return(&domain.BalanceResult{Success: false, NewBalance: 5, Error: "Insufficient balance"}, balanceservice.ErrInsufficientBalance)
			},
			expectedCode:  http.StatusOK,
			expectedError: "Insufficient balance",
		},
		{
			name: "Non positive amount",
			call: handler.AdminSubtractBalance,
			body: `{"amount":0}`,
			prepareMock: func() {
				service.EXPECT().SubtractBalance(callerCtx(), userID, 0.0).Return(nil, balanceservice.ErrInvalidAmount)
			},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid amount",
		},
		{
			name:          "Malformed user id",
			call:          handler.AdminAddBalance,
			body:          `{"user_id":"nope","amount":5}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			tt.call(w, request(http.MethodPost, "/api/admin/balance", tt.body))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeFailure(t, w).Error)
				return
			}
			var body dto.BalanceResultDTO
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, *tt.expectedBody, body)
		})
	}
}

func TestStreamHandler(t *testing.T) {
	handler, service, hub := NewMock(t)
	service.EXPECT().GetBalance(gomock.Any(), userID).Return(&domain.Profile{
		UserID: userID, Balance: 1, TotalEarned: 2, ReferralCode: "K7Q2M9XA",
	}, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Stream(w, r.WithContext(auth.WithCaller(r.Context(), auth.Caller{ID: userID})))
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial domain.BalanceSnapshot
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, domain.BalanceSnapshot{UserID: userID, Balance: 1, TotalEarned: 2, ReferralCode: "K7Q2M9XA"}, initial)

	require.Eventually(t, func() bool { return hub.Subscribers(userID) == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(domain.BalanceSnapshot{UserID: uuid.New(), Balance: 99})
	hub.Publish(domain.BalanceSnapshot{UserID: userID, Balance: 3, TotalEarned: 4, ReferralCode: "K7Q2M9XA"})

	var update domain.BalanceSnapshot
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, 3.0, update.Balance)
	assert.Equal(t, 4.0, update.TotalEarned)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(userID) == 0 }, time.Second, 10*time.Millisecond)
}

func TestStreamHandler_ProfileError(t *testing.T) {
	handler, service, hub := NewMock(t)
	service.EXPECT().GetBalance(callerCtx(), userID).Return(nil, errors.New("db error"))

	w := httptest.NewRecorder()
	handler.Stream(w, request(http.MethodGet, "/api/user/balance/stream", ""))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, hub.Subscribers(userID))
}
