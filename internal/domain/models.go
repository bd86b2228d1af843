package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	IsBanned     bool      `db:"is_banned"`
	CreatedAt    time.Time `db:"created_at"`
}

// Profile carries the spendable balance of a user. It is mutated only by
// the store procedures.
type Profile struct {
	UserID       uuid.UUID  `db:"user_id"`
	Balance      float64    `db:"balance"`
	TotalEarned  float64    `db:"total_earned"`
	ReferralCode string     `db:"referral_code"`
	ReferredBy   *uuid.UUID `db:"referred_by"`
}

// BalanceResult is the row shape returned by every balance procedure.
type BalanceResult struct {
	Success    bool    `db:"success"`
	NewBalance float64 `db:"new_balance"`
	Error      string  `db:"error"`
}

type MiningResult struct {
	BalanceResult
	Reward float64 `db:"reward"`
}

const (
	DepositPending   = "pending"
	DepositCompleted = "completed"
	DepositExpired   = "expired"
)

type Deposit struct {
	ID               uuid.UUID  `db:"id"`
	UserID           uuid.UUID  `db:"user_id"`
	Amount           float64    `db:"amount"`
	Bonus            float64    `db:"bonus"`
	VerificationCode string     `db:"verification_code"`
	Status           string     `db:"status"`
	FaucetPayEmail   string     `db:"faucetpay_email"`
	ExpiresAt        time.Time  `db:"expires_at"`
	CreatedAt        time.Time  `db:"created_at"`
	CompletedAt      *time.Time `db:"completed_at"`
}

const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"

	TransactionPending    = "pending"
	TransactionProcessing = "processing"
	TransactionCompleted  = "completed"
	TransactionFailed     = "failed"
)

type Transaction struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	TxHash      *string    `db:"tx_hash"`
	Amount      float64    `db:"amount"`
	Type        string     `db:"type"`
	Status      string     `db:"status"`
	Destination string     `db:"destination"`
	Notes       string     `db:"notes"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

const (
	NotificationDeposit        = "deposit"
	NotificationDepositRequest = "deposit_request"
	NotificationWithdrawal     = "withdrawal"
)

type Notification struct {
	ID        uuid.UUID       `db:"id"`
	UserID    uuid.UUID       `db:"user_id"`
	Type      string          `db:"type"`
	Title     string          `db:"title"`
	Message   string          `db:"message"`
	Data      json.RawMessage `db:"data"`
	IsRead    bool            `db:"is_read"`
	CreatedAt time.Time       `db:"created_at"`
}

type DeviceFingerprint struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Fingerprint string    `db:"fingerprint"`
	IPAddress   string    `db:"ip_address"`
	UserAgent   string    `db:"user_agent"`
	CreatedAt   time.Time `db:"created_at"`
}

// FingerprintStats aggregates the accounts seen behind one fingerprint and
// one IP address, excluding the caller.
type FingerprintStats struct {
	FingerprintAccounts int
	IPAccounts          int
	Banned              bool
}

// BalanceSnapshot is the profile state pushed by the change feed.
type BalanceSnapshot struct {
	UserID       uuid.UUID `json:"user_id"`
	Balance      float64   `json:"balance"`
	TotalEarned  float64   `json:"total_earned"`
	ReferralCode string    `json:"referral_code"`
}

var (
	// ErrPendingDepositExists is returned when a user already holds a pending deposit.
	ErrPendingDepositExists = errors.New("pending deposit already exists")
	// ErrTransactionCompleted is returned when a transaction hash was already credited.
	ErrTransactionCompleted = errors.New("transaction already completed")
)
