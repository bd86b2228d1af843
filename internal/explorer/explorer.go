// Package explorer reads Dogecoin transactions from a BlockCypher compatible
// blockchain explorer.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/pkg/clients"
)

// CoinExponent is the number of decimal places between a coin and its
// smallest unit.
const CoinExponent = 8

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrUnexpectedStatus = errors.New("unexpected explorer status")
)

type Output struct {
	Value     int64    `json:"value"`
	Addresses []string `json:"addresses"`
}

type Transaction struct {
	Hash          string   `json:"hash"`
	Confirmations int      `json:"confirmations"`
	Outputs       []Output `json:"outputs"`
}

// ReceivedBy sums every output paying address, in coins.
func (t *Transaction) ReceivedBy(address string) decimal.Decimal {
	var total int64
	for _, out := range t.Outputs {
		for _, a := range out.Addresses {
			if a == address {
				total += out.Value
				break
			}
		}
	}
	return decimal.New(total, -CoinExponent)
}

type Client struct {
	url    string
	client clients.HTTPClientI
}

func New(baseURL string, client clients.HTTPClientI) *Client {
	return &Client{url: baseURL, client: client}
}

func (c *Client) Transaction(ctx context.Context, hash string) (*Transaction, error) {
	statusCode, respBody, _, err := c.client.Get(ctx, c.url+"/txs/"+url.PathEscape(hash), nil)
	if err != nil {
		zap.L().Error("explorer request failed", zap.String("hash", hash), zap.Error(err))
		return nil, fmt.Errorf("explorer request: %w", err)
	}

	switch statusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		zap.L().Error("unexpected explorer status", zap.Int("status", statusCode), zap.String("hash", hash))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, statusCode)
	}

	var tx Transaction
	if err := json.Unmarshal(respBody, &tx); err != nil {
		return nil, fmt.Errorf("failed to parse explorer response: %w", err)
	}
	return &tx, nil
}
