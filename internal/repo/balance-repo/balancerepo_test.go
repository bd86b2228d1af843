package balancerepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

var profileColumns = []string{"user_id", "balance", "total_earned", "referral_code", "referred_by"}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB), mockDB
}

func TestRepository_GetProfile(t *testing.T) {
	repo, mock := NewMock(t)
	userID := uuid.New()
	var noReferrer *uuid.UUID

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Profile
	}{
		{
			name: "Profile exists",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, balance, total_earned, referral_code, referred_by FROM profiles WHERE user_id = $1`)).
					WithArgs(userID).
					WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(userID, 12.5, 40.0, "AB12CD34", noReferrer))
			},
			result: &domain.Profile{UserID: userID, Balance: 12.5, TotalEarned: 40, ReferralCode: "AB12CD34"},
		},
		{
			name: "Profile missing",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles WHERE user_id = $1`)).
					WithArgs(userID).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM profiles WHERE user_id = $1`)).
					WithArgs(userID).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetProfile(context.Background(), userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_CreateProfile(t *testing.T) {
	repo, mock := NewMock(t)
	userID := uuid.New()
	var noReferrer *uuid.UUID

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO profiles (user_id, referral_code) VALUES ($1, $2)`)).
		WithArgs(userID, "AB12CD34").
		WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(userID, 0.0, 0.0, "AB12CD34", noReferrer))

	profile, err := repo.CreateProfile(context.Background(), userID, "AB12CD34")

	assert.NoError(t, err)
	assert.Equal(t, &domain.Profile{UserID: userID, ReferralCode: "AB12CD34"}, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_BalanceProcedures(t *testing.T) {
	userID := uuid.New()
	resultColumns := []string{"success", "new_balance", "error"}

	tests := []struct {
		name      string
		query     string
		args      []any
		call      func(r *Repository) (*domain.BalanceResult, error)
		row       []any
		dbErr     error
		expectErr bool
		expected  *domain.BalanceResult
	}{
		{
			name:     "add_balance",
			query:    "FROM add_balance($1, $2)",
			args:     []any{userID, 5.0},
			call:     func(r *Repository) (*domain.BalanceResult, error) { return r.AddBalance(context.Background(), userID, 5) },
			row:      []any{true, 15.0, ""},
			expected: &domain.BalanceResult{Success: true, NewBalance: 15},
		},
		{
			name:     "internal_add_balance",
			query:    "FROM internal_add_balance($1, $2)",
			args:     []any{userID, 2.5},
			call:     func(r *Repository) (*domain.BalanceResult, error) { return r.InternalAddBalance(context.Background(), userID, 2.5) },
			row:      []any{true, 12.5, ""},
			expected: &domain.BalanceResult{Success: true, NewBalance: 12.5},
		},
		{
			name:     "subtract_balance insufficient",
			query:    "FROM subtract_balance($1, $2)",
			args:     []any{userID, 50.0},
			call:     func(r *Repository) (*domain.BalanceResult, error) { return r.SubtractBalance(context.Background(), userID, 50) },
			row:      []any{false, 10.0, "Insufficient balance"},
			expected: &domain.BalanceResult{Success: false, NewBalance: 10, Error: "Insufficient balance"},
		},
		{
			name:  "apply_referral_code",
			query: "FROM apply_referral_code($1, $2, $3)",
			args:  []any{userID, "AB12CD34", 1.0},
			call: func(r *Repository) (*domain.BalanceResult, error) {
				return r.ApplyReferralCode(context.Background(), userID, "AB12CD34", 1)
			},
			row:      []any{true, 1.0, ""},
			expected: &domain.BalanceResult{Success: true, NewBalance: 1},
		},
		{
			name:      "procedure error",
			query:     "FROM add_balance($1, $2)",
			args:      []any{userID, 5.0},
			call:      func(r *Repository) (*domain.BalanceResult, error) { return r.AddBalance(context.Background(), userID, 5) },
			dbErr:     errors.New("database error"),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			expectation := mock.ExpectQuery(regexp.QuoteMeta(tt.query)).WithArgs(tt.args...)
			if tt.dbErr != nil {
				expectation.WillReturnError(tt.dbErr)
			} else {
				expectation.WillReturnRows(pgxmock.NewRows(resultColumns).AddRow(tt.row...))
			}

			result, err := tt.call(repo)

			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ClaimMiningReward(t *testing.T) {
	repo, mock := NewMock(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM claim_mining_reward($1, $2, $3)")).
		WithArgs(userID, 0.01, 24.0).
		WillReturnRows(pgxmock.NewRows([]string{"success", "new_balance", "reward", "error"}).AddRow(true, 1.24, 0.24, ""))

	result, err := repo.ClaimMiningReward(context.Background(), userID, 0.01, 24)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.InDelta(t, 0.24, result.Reward, 1e-9)
	assert.InDelta(t, 1.24, result.NewBalance, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
