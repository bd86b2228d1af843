package payout

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/dogefaucet/pkg/clients"
)

func TestFaucetPay_Enabled(t *testing.T) {
	assert.False(t, NewFaucetPay("https://faucetpay.io", "", "DOGE", nil).Enabled())
	assert.True(t, NewFaucetPay("https://faucetpay.io", "key", "DOGE", nil).Enabled())
}

func TestFaucetPay_Send(t *testing.T) {
	expectedForm := url.Values{
		"api_key":  {"key"},
		"amount":   {"1250000000"},
		"to":       {"shibe@example.com"},
		"currency": {"DOGE"},
	}

	tests := []struct {
		name           string
		statusCode     int
		body           string
		clientErr      error
		expectedResult *SendResult
		checkErr       func(t *testing.T, err error)
	}{
		{
			name:           "Sent",
			statusCode:     http.StatusOK,
			body:           `{"status":200,"message":"OK","rate_limit_remaining":9,"currency":"DOGE","balance":"98750000000","payout_id":4211,"payout_user_hash":"b3a1"}`,
			expectedResult: &SendResult{PayoutID: 4211, PayoutHash: "b3a1", Balance: "98750000000"},
		},
		{
			name:       "Rejected by FaucetPay",
			statusCode: http.StatusOK,
			body:       `{"status":456,"message":"The address does not belong to any user."}`,
			checkErr: func(t *testing.T, err error) {
				var rejected *RejectedError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, 456, rejected.Status)
				assert.Equal(t, "The address does not belong to any user.", rejected.Message)
			},
		},
		{
			name:       "Rate limited",
			statusCode: http.StatusTooManyRequests,
			checkErr: func(t *testing.T, err error) {
				var transient *TransientError
				require.ErrorAs(t, err, &transient)
				assert.Equal(t, http.StatusTooManyRequests, transient.HTTPStatus)
			},
		},
		{
			name:       "Gateway failure",
			statusCode: http.StatusBadGateway,
			checkErr: func(t *testing.T, err error) {
				var transient *TransientError
				require.ErrorAs(t, err, &transient)
			},
		},
		{
			name:       "Malformed body",
			statusCode: http.StatusOK,
			body:       `<html>`,
			checkErr: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "failed to parse faucetpay response")
			},
		},
		{
			name:      "Network failure",
			clientErr: errors.New("dial tcp: timeout"),
			checkErr: func(t *testing.T, err error) {
				assert.EqualError(t, err, "dial tcp: timeout")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := clients.NewMockHTTPClientI(ctrl)
			fp := NewFaucetPay("https://faucetpay.io", "key", "DOGE", client)

			client.EXPECT().
				PostForm(gomock.Any(), "https://faucetpay.io/api/v1/send", expectedForm).
				Return(tt.statusCode, []byte(tt.body), tt.clientErr)

			res, err := fp.Send(context.Background(), "shibe@example.com", 12.5)
			if tt.checkErr != nil {
				require.Error(t, err)
				tt.checkErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, res)
		})
	}
}
