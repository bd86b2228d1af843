// Package faucetclient is a Go client for the faucet HTTP API together with
// a subscribable balance state that follows the live balance feed.
package faucetclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/GlebRadaev/dogefaucet/pkg/utils"
)

const insufficientBalance = "Insufficient balance"

var ErrInsufficientBalance = errors.New("insufficient balance")

// APIError is a failed call. StatusCode is 200 for business rule failures
// reported through the success flag.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("faucet api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Message == insufficientBalance {
		return ErrInsufficientBalance
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer

	mu    sync.RWMutex
	token string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register creates an account and keeps the issued token for later calls.
func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	return c.authenticate(ctx, "/api/user/register", login, password)
}

// Login keeps the issued token for later calls.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	return c.authenticate(ctx, "/api/user/login", login, password)
}

func (c *Client) authenticate(ctx context.Context, path, login, password string) (string, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, path, Credentials{Login: login, Password: password}, &resp); err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

func (c *Client) Balance(ctx context.Context) (*BalanceResponse, error) {
	var resp BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/api/user/balance", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ClaimMining(ctx context.Context) (*MiningClaim, error) {
	var resp MiningClaim
	if err := c.do(ctx, http.MethodPost, "/api/user/balance/mining/claim", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ApplyReferral(ctx context.Context, code string) (*BalanceResult, error) {
	var resp BalanceResult
	if err := c.do(ctx, http.MethodPost, "/api/user/balance/referral", referralRequest{Code: code}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddBalance credits userID, or the caller when userID is nil. Admin only.
func (c *Client) AddBalance(ctx context.Context, userID *uuid.UUID, amount float64) (*BalanceResult, error) {
	return c.adjust(ctx, "/api/admin/balance/add", userID, amount)
}

// SubtractBalance debits userID, or the caller when userID is nil. Admin only.
func (c *Client) SubtractBalance(ctx context.Context, userID *uuid.UUID, amount float64) (*BalanceResult, error) {
	return c.adjust(ctx, "/api/admin/balance/subtract", userID, amount)
}

func (c *Client) adjust(ctx context.Context, path string, userID *uuid.UUID, amount float64) (*BalanceResult, error) {
	var resp BalanceResult
	if err := c.do(ctx, http.MethodPost, path, adjustRequest{UserID: userID, Amount: amount}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dial opens the live balance stream of the caller.
func (c *Client) Dial(ctx context.Context) (*websocket.Conn, error) {
	target := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/user/balance/stream"
	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, decodeError(resp.StatusCode, resp.Body)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, resp.Body)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope utils.Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	if !envelope.Success && envelope.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}
	return json.Unmarshal(raw, out)
}

func decodeError(status int, body io.Reader) error {
	var envelope utils.Response
	if err := json.NewDecoder(body).Decode(&envelope); err != nil || envelope.Error == "" {
		return &APIError{StatusCode: status, Message: http.StatusText(status)}
	}
	return &APIError{StatusCode: status, Message: envelope.Error}
}
