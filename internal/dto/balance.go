package dto

import (
	"time"

	"github.com/google/uuid"
)

type BalanceResponseDTO struct {
	Success      bool    `json:"success" example:"true"`
	Balance      float64 `json:"balance" example:"12.5"`
	TotalEarned  float64 `json:"total_earned" example:"40"`
	ReferralCode string  `json:"referral_code" example:"K7Q2M9XA"`
}

// BalanceResultDTO mirrors the result of a balance procedure.
type BalanceResultDTO struct {
	Success    bool    `json:"success" example:"true"`
	NewBalance float64 `json:"new_balance" example:"13.5"`
	Error      string  `json:"error,omitempty" example:"Insufficient balance"`
}

type MiningClaimResponseDTO struct {
	Success    bool    `json:"success" example:"true"`
	NewBalance float64 `json:"new_balance" example:"12.74"`
	Reward     float64 `json:"reward" example:"0.24"`
	Error      string  `json:"error,omitempty" example:"Nothing to claim yet"`
}

type ReferralRequestDTO struct {
	Code string `json:"code" example:"K7Q2M9XA"`
}

type AdminBalanceRequestDTO struct {
	UserID *uuid.UUID `json:"user_id,omitempty" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	Amount float64    `json:"amount" example:"5"`
}

type WithdrawRequestDTO struct {
	Amount         float64 `json:"amount" example:"5"`
	FaucetPayEmail string  `json:"faucetpay_email" example:"user@example.com"`
}

type WithdrawResponseDTO struct {
	Success      bool      `json:"success" example:"true"`
	WithdrawalID uuid.UUID `json:"withdrawal_id" example:"6a0c3d58-3b1e-4a55-9c1f-0e5b8f3f3d21"`
	Amount       float64   `json:"amount" example:"5"`
	Status       string    `json:"status" example:"pending"`
}

type WithdrawalDTO struct {
	ID          uuid.UUID  `json:"id" example:"6a0c3d58-3b1e-4a55-9c1f-0e5b8f3f3d21"`
	Amount      float64    `json:"amount" example:"5"`
	Status      string     `json:"status" example:"completed"`
	Destination string     `json:"destination" example:"user@example.com"`
	Notes       string     `json:"notes,omitempty" example:"payout 12345"`
	CreatedAt   time.Time  `json:"created_at" example:"2024-12-09T16:09:57Z"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" example:"2024-12-09T16:10:07Z"`
}
