package faucetclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State is the balance view of the signed in user.
type State struct {
	Balance      float64
	ReferralCode string
	TotalEarned  float64
	IsLoading    bool
}

// BalanceStore keeps State in sync with the API and the live feed and calls
// subscribers with a copy after every change.
type BalanceStore struct {
	client *Client

	mu      sync.Mutex
	state   State
	session uint64
	subs    map[uint64]func(State)
	nextSub uint64
	watches map[uint64]context.CancelFunc
}

func NewBalanceStore(client *Client) *BalanceStore {
	return &BalanceStore{
		client:  client,
		subs:    make(map[uint64]func(State)),
		watches: make(map[uint64]context.CancelFunc),
	}
}

func (s *BalanceStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn and returns a func that removes it.
func (s *BalanceStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SetUser switches the store to the user behind token. The state is reset,
// open streams of the previous user are closed and, for a non empty token,
// the state is fetched again.
func (s *BalanceStore) SetUser(ctx context.Context, token string) error {
	s.client.SetToken(token)
	s.update(func(st *State) {
		*st = State{}
		s.session++
		for id, cancel := range s.watches {
			cancel()
			delete(s.watches, id)
		}
	})
	if token == "" {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches the balance. A reply that arrives after the user changed
// is dropped.
func (s *BalanceStore) Refresh(ctx context.Context) error {
	var session uint64
	s.update(func(st *State) {
		st.IsLoading = true
		session = s.session
	})

	resp, err := s.client.Balance(ctx)

	s.update(func(st *State) {
		if session != s.session {
			return
		}
		st.IsLoading = false
		if err != nil {
			return
		}
		st.Balance = resp.Balance
		st.TotalEarned = resp.TotalEarned
		st.ReferralCode = resp.ReferralCode
	})
	return err
}

// ApplyUpdate replaces the state with a feed snapshot.
func (s *BalanceStore) ApplyUpdate(snap BalanceSnapshot) {
	s.update(func(st *State) { applySnapshot(st, snap) })
}

// applyUpdate is ApplyUpdate for a stream opened in session. It reports
// false and leaves the state alone once the user has changed.
func (s *BalanceStore) applyUpdate(session uint64, snap BalanceSnapshot) bool {
	applied := false
	s.update(func(st *State) {
		if session != s.session {
			return
		}
		applySnapshot(st, snap)
		applied = true
	})
	return applied
}

func applySnapshot(st *State, snap BalanceSnapshot) {
	st.Balance = snap.Balance
	st.TotalEarned = snap.TotalEarned
	st.ReferralCode = snap.ReferralCode
}

// Watch applies snapshots from the balance stream until ctx is done, the
// stream breaks or SetUser switches to another user.
func (s *BalanceStore) Watch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	session := s.session
	id := s.nextSub
	s.nextSub++
	s.watches[id] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.watches, id)
		s.mu.Unlock()
	}()

	conn, err := s.client.Dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var snap BalanceSnapshot
		if err := conn.ReadJSON(&snap); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if !s.applyUpdate(session, snap) {
			return nil
		}
	}
}

func (s *BalanceStore) AddBalance(ctx context.Context, amount float64) bool {
	resp, err := s.client.AddBalance(ctx, nil, amount)
	if err != nil {
		zap.L().Warn("add balance failed", zap.Error(err))
		return false
	}
	if resp.Success {
		s.setBalance(resp.NewBalance)
	}
	return resp.Success
}

// SubtractBalance reports ErrInsufficientBalance when the balance does not
// cover amount. Other failures only yield false.
func (s *BalanceStore) SubtractBalance(ctx context.Context, amount float64) (bool, error) {
	resp, err := s.client.SubtractBalance(ctx, nil, amount)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return false, ErrInsufficientBalance
		}
		zap.L().Warn("subtract balance failed", zap.Error(err))
		return false, nil
	}
	if resp.Success {
		s.setBalance(resp.NewBalance)
	}
	return resp.Success, nil
}

func (s *BalanceStore) ClaimMiningReward(ctx context.Context) bool {
	resp, err := s.client.ClaimMining(ctx)
	if err != nil {
		zap.L().Warn("mining claim failed", zap.Error(err))
		return false
	}
	if resp.Success {
		s.update(func(st *State) {
			st.Balance = resp.NewBalance
			st.TotalEarned += resp.Reward
		})
	}
	return resp.Success
}

func (s *BalanceStore) ApplyReferralCode(ctx context.Context, code string) bool {
	resp, err := s.client.ApplyReferral(ctx, code)
	if err != nil {
		zap.L().Warn("referral failed", zap.Error(err))
		return false
	}
	if resp.Success {
		s.setBalance(resp.NewBalance)
	}
	return resp.Success
}

func (s *BalanceStore) setBalance(balance float64) {
	s.update(func(st *State) { st.Balance = balance })
}

// update mutates the state under the lock and then notifies subscribers
// outside of it.
func (s *BalanceStore) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}
