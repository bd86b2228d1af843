package balance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/dto"
	"github.com/GlebRadaev/dogefaucet/internal/service/balanceservice"
	"github.com/GlebRadaev/dogefaucet/pkg/auth"
	"github.com/GlebRadaev/dogefaucet/pkg/utils"
)

//go:generate mockgen -source=balance.go -destination=mock_balance.go -package=balance

type Service interface {
	CreateBalance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	AddBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)
	SubtractBalance(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)
	ClaimMiningReward(ctx context.Context, userID uuid.UUID) (*domain.MiningResult, error)
	ApplyReferralCode(ctx context.Context, userID uuid.UUID, code string) (*domain.BalanceResult, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount float64, destination string) (*domain.Transaction, error)
	GetWithdrawals(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
}

// Subscriber is the source of live balance snapshots.
type Subscriber interface {
	Subscribe(userID uuid.UUID) (<-chan domain.BalanceSnapshot, func())
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type BalanceHandler struct {
	balanceService Service
	feed           Subscriber
}

func New(balanceService Service, feed Subscriber) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		feed:           feed,
	}
}

func callerID(r *http.Request) uuid.UUID {
	caller, _ := auth.CallerFromContext(r.Context())
	return caller.ID
}

func rejection(err error) string {
	return strings.TrimPrefix(err.Error(), balanceservice.ErrRejected.Error()+": ")
}

// GetBalance godoc
//
//	@Summary		Get current user balance
//	@Description	Retrieve the balance, the lifetime earnings and the referral code of the authenticated user.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	profile, err := h.balanceService.GetBalance(r.Context(), callerID(r))
	if err != nil {
		if errors.Is(err, balanceservice.ErrProfileNotFound) {
			utils.RespondWithFailure(w, "Profile not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Success:      true,
		Balance:      profile.Balance,
		TotalEarned:  profile.TotalEarned,
		ReferralCode: profile.ReferralCode,
	})
}

// ClaimMining godoc
//
//	@Summary		Claim the mining reward
//	@Description	Credit the reward accrued since the last claim.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.MiningClaimResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/balance/mining/claim [post]
func (h *BalanceHandler) ClaimMining(w http.ResponseWriter, r *http.Request) {
	res, err := h.balanceService.ClaimMiningReward(r.Context(), callerID(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.MiningClaimResponseDTO{
		Success:    res.Success,
		NewBalance: res.NewBalance,
		Reward:     res.Reward,
		Error:      res.Error,
	})
}

// ApplyReferral godoc
//
//	@Summary		Apply a referral code
//	@Description	Link the authenticated user to a referrer and credit the referral bonus.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ReferralRequestDTO	true	"Referral code"
//	@Success		200		{object}	dto.BalanceResultDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/balance/referral [post]
func (h *BalanceHandler) ApplyReferral(w http.ResponseWriter, r *http.Request) {
	var req dto.ReferralRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.balanceService.ApplyReferralCode(r.Context(), callerID(r), req.Code)
	if err != nil {
		if errors.Is(err, balanceservice.ErrInvalidReferralCode) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResultDTO{
		Success:    res.Success,
		NewBalance: res.NewBalance,
		Error:      res.Error,
	})
}

// Withdraw godoc
//
//	@Summary		Request funds withdrawal
//	@Description	Debit the balance and queue a FaucetPay payout to the given address.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawRequestDTO	true	"Withdrawal request payload"
//	@Success		200		{object}	dto.WithdrawResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/balance/withdraw [post]
func (h *BalanceHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	destination := strings.TrimSpace(req.FaucetPayEmail)
	if destination == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "faucetpay_email is required")
		return
	}

	withdrawal, err := h.balanceService.Withdraw(r.Context(), callerID(r), req.Amount, destination)
	if err != nil {
		switch {
		case errors.Is(err, balanceservice.ErrInvalidAmount):
			utils.RespondWithError(w, http.StatusBadRequest, "Amount below minimum withdrawal")
		case errors.Is(err, balanceservice.ErrInsufficientBalance):
			utils.RespondWithFailure(w, "Insufficient balance")
		case errors.Is(err, balanceservice.ErrRejected):
			utils.RespondWithFailure(w, rejection(err))
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.WithdrawResponseDTO{
		Success:      true,
		WithdrawalID: withdrawal.ID,
		Amount:       withdrawal.Amount,
		Status:       withdrawal.Status,
	})
}

// GetWithdrawals godoc
//
//	@Summary		Get withdrawals history
//	@Description	Get withdrawals history for the authenticated user, newest first
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.WithdrawalDTO	"Withdrawals history"
//	@Success		204	{string}	string				"Withdrawals not found"
//	@Failure		401	{object}	utils.Response		"User not authorized"
//	@Failure		500	{object}	utils.Response		"Internal server error"
//	@Router			/api/user/withdrawals [get]
func (h *BalanceHandler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.balanceService.GetWithdrawals(r.Context(), callerID(r))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch withdrawals")
		return
	}

	if len(withdrawals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response := make([]dto.WithdrawalDTO, len(withdrawals))
	for i, wd := range withdrawals {
		response[i] = dto.WithdrawalDTO{
			ID:          wd.ID,
			Amount:      wd.Amount,
			Status:      wd.Status,
			Destination: wd.Destination,
			Notes:       wd.Notes,
			CreatedAt:   wd.CreatedAt,
			ProcessedAt: wd.ProcessedAt,
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Stream godoc
//
//	@Summary		Live balance updates
//	@Description	Websocket that sends the current balance and then every change of the caller's profile.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Success		101	{object}	domain.BalanceSnapshot
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/balance/stream [get]
func (h *BalanceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	profile, err := h.balanceService.GetBalance(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updates, unsubscribe := h.feed.Subscribe(userID)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	initial := domain.BalanceSnapshot{
		UserID:       userID,
		Balance:      profile.Balance,
		TotalEarned:  profile.TotalEarned,
		ReferralCode: profile.ReferralCode,
	}
	if err := writeSnapshot(conn, initial); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, s); err != nil {
				zap.L().Debug("balance stream closed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, s domain.BalanceSnapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(s)
}

// AdminAddBalance godoc
//
//	@Summary		Credit a balance
//	@Description	Admin only. Credits the given user, or the caller when user_id is omitted.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AdminBalanceRequestDTO	true	"Target and amount"
//	@Success		200		{object}	dto.BalanceResultDTO
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Forbidden"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/balance/add [post]
func (h *BalanceHandler) AdminAddBalance(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.balanceService.AddBalance)
}

// AdminSubtractBalance godoc
//
//	@Summary		Debit a balance
//	@Description	Admin only. Debits the given user, or the caller when user_id is omitted.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AdminBalanceRequestDTO	true	"Target and amount"
//	@Success		200		{object}	dto.BalanceResultDTO
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Forbidden"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/balance/subtract [post]
func (h *BalanceHandler) AdminSubtractBalance(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.balanceService.SubtractBalance)
}

type adjustFn func(ctx context.Context, userID uuid.UUID, amount float64) (*domain.BalanceResult, error)

func (h *BalanceHandler) adjust(w http.ResponseWriter, r *http.Request, fn adjustFn) {
	var req dto.AdminBalanceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target := callerID(r)
	if req.UserID != nil {
		target = *req.UserID
	}

	res, err := fn(r.Context(), target, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, balanceservice.ErrInvalidAmount):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, balanceservice.ErrInsufficientBalance):
			utils.RespondWithFailure(w, "Insufficient balance")
		case errors.Is(err, balanceservice.ErrRejected):
			utils.RespondWithFailure(w, rejection(err))
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResultDTO{
		Success:    true,
		NewBalance: res.NewBalance,
	})
}
