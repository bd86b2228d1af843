package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDepositRequestDTO struct {
	Amount         float64 `json:"amount" example:"10"`
	FaucetPayEmail string  `json:"faucetpay_email,omitempty" example:"user@example.com"`
}

type DepositIssuedDTO struct {
	Success          bool      `json:"success" example:"true"`
	DepositID        uuid.UUID `json:"deposit_id" example:"b3f1d7a2-95f6-4b8e-8d7e-2f0c1a9e4c11"`
	VerificationCode string    `json:"verification_code" example:"DEP0F8FAD5BLOYW3V28"`
	Amount           float64   `json:"amount" example:"10"`
	Bonus            float64   `json:"bonus" example:"2.5"`
	TotalCredited    float64   `json:"total_credited" example:"12.5"`
	PromoActive      bool      `json:"promo_active" example:"true"`
	PaymentURL       string    `json:"payment_url" example:"https://faucetpay.io/merchant/webscr?..."`
	ExpiresAt        time.Time `json:"expires_at" example:"2024-12-09T17:09:57Z"`
	Recipient        string    `json:"recipient" example:"dogefaucet"`
}

type DepositDTO struct {
	ID               uuid.UUID  `json:"id"`
	Amount           float64    `json:"amount" example:"10"`
	Bonus            float64    `json:"bonus" example:"2.5"`
	VerificationCode string     `json:"verification_code" example:"DEP0F8FAD5BLOYW3V28"`
	Status           string     `json:"status" example:"pending"`
	ExpiresAt        time.Time  `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type VerifyDepositRequestDTO struct {
	TxHash         string     `json:"tx_hash" example:"5f2a...c9"`
	ExpectedAmount float64    `json:"expected_amount" example:"10"`
	UserID         *uuid.UUID `json:"user_id,omitempty" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
}

// VerifyDepositResponseDTO carries the failure reason in both Message and Error.
type VerifyDepositResponseDTO struct {
	Success        bool    `json:"success" example:"true"`
	CreditedAmount float64 `json:"credited_amount" example:"12.5"`
	Confirmations  int     `json:"confirmations" example:"2"`
	Message        string  `json:"message" example:"Deposit verified and credited"`
	Error          string  `json:"error,omitempty" example:"Amount mismatch"`
}

type ExpireDepositsResponseDTO struct {
	Success      bool        `json:"success" example:"true"`
	ExpiredCount int         `json:"expired_count" example:"1"`
	ExpiredIDs   []uuid.UUID `json:"expired_ids"`
}
