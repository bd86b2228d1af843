package deposits

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/GlebRadaev/dogefaucet/internal/dto"
	"github.com/GlebRadaev/dogefaucet/internal/service/depositservice"
	"github.com/GlebRadaev/dogefaucet/pkg/auth"
	"github.com/GlebRadaev/dogefaucet/pkg/utils"
)

//go:generate mockgen -source=deposits.go -destination=mock_deposits.go -package=deposits

type Service interface {
	Issue(ctx context.Context, userID uuid.UUID, amount float64, email string) (*depositservice.Issued, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error)
	Verify(ctx context.Context, req depositservice.VerifyRequest) (*depositservice.VerifyResult, error)
	Expire(ctx context.Context) ([]uuid.UUID, error)
}

const CronSecretHeader = "X-Cron-Secret"

type DepositHandler struct {
	depositService Service
	cronSecret     string
}

func New(depositService Service, cronSecret string) *DepositHandler {
	return &DepositHandler{
		depositService: depositService,
		cronSecret:     cronSecret,
	}
}

// CreateFaucetPay godoc
//
//	@Summary		Issue a FaucetPay deposit
//	@Description	Returns the live pending deposit of the caller or creates a new one with a payment link.
//	@Tags			Deposits
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateDepositRequestDTO	true	"Deposit amount"
//	@Success		200		{object}	dto.DepositIssuedDTO
//	@Failure		400		{object}	utils.Response	"Amount out of range"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/deposits/faucetpay [post]
func (h *DepositHandler) CreateFaucetPay(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	var req dto.CreateDepositRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issued, err := h.depositService.Issue(r.Context(), caller.ID, req.Amount, strings.TrimSpace(req.FaucetPayEmail))
	if err != nil {
		if errors.Is(err, depositservice.ErrInvalidAmount) {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	d := issued.Deposit
	utils.RespondWithJSON(w, http.StatusOK, dto.DepositIssuedDTO{
		Success:          true,
		DepositID:        d.ID,
		VerificationCode: d.VerificationCode,
		Amount:           d.Amount,
		Bonus:            d.Bonus,
		TotalCredited:    issued.TotalCredited(),
		PromoActive:      issued.PromoActive,
		PaymentURL:       issued.PaymentURL,
		ExpiresAt:        d.ExpiresAt,
		Recipient:        issued.Recipient,
	})
}

// List godoc
//
//	@Summary		List deposits
//	@Description	Most recent deposits of the authenticated user.
//	@Tags			Deposits
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.DepositDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/deposits [get]
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	deposits, err := h.depositService.List(r.Context(), caller.ID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := make([]dto.DepositDTO, len(deposits))
	for i, d := range deposits {
		response[i] = dto.DepositDTO{
			ID:               d.ID,
			Amount:           d.Amount,
			Bonus:            d.Bonus,
			VerificationCode: d.VerificationCode,
			Status:           d.Status,
			ExpiresAt:        d.ExpiresAt,
			CreatedAt:        d.CreatedAt,
			CompletedAt:      d.CompletedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Verify godoc
//
//	@Summary		Verify an on-chain deposit
//	@Description	Looks the transaction up on the explorer and credits the balance once. Business failures come back with success=false.
//	@Tags			Deposits
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.VerifyDepositRequestDTO	true	"Transaction to verify"
//	@Success		200		{object}	dto.VerifyDepositResponseDTO
//	@Failure		400		{object}	utils.Response	"Missing fields"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Crediting another user requires admin"
//	@Failure		500		{object}	utils.Response	"Explorer or store unreachable"
//	@Router			/api/deposits/verify [post]
func (h *DepositHandler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())

	var req dto.VerifyDepositRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := caller.ID
	if req.UserID != nil && *req.UserID != caller.ID {
		if !caller.IsAdmin {
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		userID = *req.UserID
	}

	res, err := h.depositService.Verify(r.Context(), depositservice.VerifyRequest{
		TxHash:         req.TxHash,
		ExpectedAmount: req.ExpectedAmount,
		UserID:         userID,
	})
	if err != nil {
		if errors.Is(err, depositservice.ErrInvalidRequest) {
			utils.RespondWithError(w, http.StatusBadRequest, "tx_hash and expected_amount are required")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := dto.VerifyDepositResponseDTO{
		Success:        res.Success,
		CreditedAmount: res.CreditedAmount,
		Confirmations:  res.Confirmations,
		Message:        res.Message,
	}
	if !res.Success {
		resp.Error = res.Message
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ExpireCron godoc
//
//	@Summary		Expire stale deposits
//	@Description	Marks every pending deposit past its expiry as expired. Guarded by the cron secret header when one is configured.
//	@Tags			Deposits
//	@Produce		json
//	@Param			X-Cron-Secret	header		string	false	"Shared cron secret"
//	@Success		200				{object}	dto.ExpireDepositsResponseDTO
//	@Failure		401				{object}	utils.Response	"Bad cron secret"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/cron/expire-deposits [post]
func (h *DepositHandler) ExpireCron(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret != "" {
		got := r.Header.Get(CronSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) != 1 {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	ids, err := h.depositService.Expire(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ExpireDepositsResponseDTO{
		Success:      true,
		ExpiredCount: len(ids),
		ExpiredIDs:   ids,
	})
}
