package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/dogefaucet/internal/explorer"
	"github.com/GlebRadaev/dogefaucet/pkg/clients"
)

// RejectedError is a payout FaucetPay refused. The withdrawal will not
// succeed on retry.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("faucetpay rejected payout: %d %s", e.Status, e.Message)
}

// TransientError is a reply worth retrying, such as a rate limit or a
// gateway failure.
type TransientError struct {
	HTTPStatus int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("faucetpay unavailable: http %d", e.HTTPStatus)
}

type SendResult struct {
	PayoutID   int64  `json:"payout_id"`
	PayoutHash string `json:"payout_user_hash"`
	Balance    string `json:"balance"`
}

type sendResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	SendResult
}

// FaucetPay pays out through the merchant send API.
type FaucetPay struct {
	url      string
	apiKey   string
	currency string
	client   clients.HTTPClientI
}

func NewFaucetPay(baseURL, apiKey, currency string, client clients.HTTPClientI) *FaucetPay {
	return &FaucetPay{
		url:      baseURL + "/api/v1/send",
		apiKey:   apiKey,
		currency: currency,
		client:   client,
	}
}

func (f *FaucetPay) Enabled() bool {
	return f.apiKey != ""
}

func (f *FaucetPay) Send(ctx context.Context, to string, amount float64) (*SendResult, error) {
	form := url.Values{}
	form.Set("api_key", f.apiKey)
	form.Set("amount", decimal.NewFromFloat(amount).Shift(explorer.CoinExponent).Round(0).String())
	form.Set("to", to)
	form.Set("currency", f.currency)

	statusCode, body, err := f.client.PostForm(ctx, f.url, form)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError {
		return nil, &TransientError{HTTPStatus: statusCode}
	}

	var resp sendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse faucetpay response (http %d): %w", statusCode, err)
	}
	if resp.Status != http.StatusOK {
		return nil, &RejectedError{Status: resp.Status, Message: resp.Message}
	}
	return &resp.SendResult, nil
}
