package faucetclient

import "github.com/google/uuid"

type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type BalanceResponse struct {
	Success      bool    `json:"success"`
	Balance      float64 `json:"balance"`
	TotalEarned  float64 `json:"total_earned"`
	ReferralCode string  `json:"referral_code"`
}

// BalanceResult is the outcome of a balance mutation.
type BalanceResult struct {
	Success    bool    `json:"success"`
	NewBalance float64 `json:"new_balance"`
	Error      string  `json:"error,omitempty"`
}

type MiningClaim struct {
	Success    bool    `json:"success"`
	NewBalance float64 `json:"new_balance"`
	Reward     float64 `json:"reward"`
	Error      string  `json:"error,omitempty"`
}

type referralRequest struct {
	Code string `json:"code"`
}

type adjustRequest struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Amount float64    `json:"amount"`
}

// BalanceSnapshot is one message of the live balance stream.
type BalanceSnapshot struct {
	UserID       uuid.UUID `json:"user_id"`
	Balance      float64   `json:"balance"`
	TotalEarned  float64   `json:"total_earned"`
	ReferralCode string    `json:"referral_code"`
}
