package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/domain"
)

const Channel = "balance_changes"

type Publisher interface {
	Publish(s domain.BalanceSnapshot)
}

type Acquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// listenConn is the part of *pgx.Conn the listener drives.
type listenConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type Listener struct {
	pool          Acquirer
	connect       func(ctx context.Context) (listenConn, error)
	publisher     Publisher
	retryInterval time.Duration
}

func NewListener(pool Acquirer, publisher Publisher) *Listener {
	l := &Listener{
		pool:          pool,
		publisher:     publisher,
		retryInterval: 2 * time.Second,
	}
	l.connect = l.hijack
	return l
}

// hijack takes a connection out of the pool for good. A connection that ran
// LISTEN must never be handed to another caller.
func (l *Listener) hijack(ctx context.Context) (listenConn, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn.Hijack(), nil
}

// Run holds a dedicated connection on LISTEN until ctx is done, reconnecting
// after failures.
func (l *Listener) Run(ctx context.Context) error {
	zap.L().Info("balance feed started", zap.String("channel", Channel))
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			zap.L().Info("balance feed stopped")
			return nil
		}
		zap.L().Error("balance feed interrupted", zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retryInterval):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			zap.L().Debug("closing balance feed connection", zap.Error(err))
		}
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.handle(n)
	}
}

func (l *Listener) handle(n *pgconn.Notification) {
	snapshot, err := Decode(n.Payload)
	if err != nil {
		zap.L().Error("bad balance notification", zap.String("payload", n.Payload), zap.Error(err))
		return
	}
	l.publisher.Publish(snapshot)
}

var ErrMissingUser = errors.New("snapshot without user_id")

// Decode parses the payload written by the profiles trigger.
func Decode(payload string) (domain.BalanceSnapshot, error) {
	var s domain.BalanceSnapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return s, err
	}
	if s.UserID == uuid.Nil {
		return s, ErrMissingUser
	}
	return s, nil
}
