package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/explorer"
	"github.com/GlebRadaev/dogefaucet/internal/feed"
	"github.com/GlebRadaev/dogefaucet/internal/handlers"
	"github.com/GlebRadaev/dogefaucet/internal/payout"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
	"github.com/GlebRadaev/dogefaucet/internal/repo"
	"github.com/GlebRadaev/dogefaucet/internal/scheduler"
	"github.com/GlebRadaev/dogefaucet/internal/service"
	"github.com/GlebRadaev/dogefaucet/pkg/auth"
	"github.com/GlebRadaev/dogefaucet/pkg/clients"
	"github.com/GlebRadaev/dogefaucet/pkg/logger"
	"github.com/GlebRadaev/dogefaucet/pkg/mailer"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg       *config.Config
	api       *handlers.Handlers
	srv       *service.Services
	repo      *repo.Repositories
	listener  *feed.Listener
	scheduler *scheduler.Scheduler
	payouts   *payout.Processor

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)
	conn := pg.New(pool)
	httpClient := clients.NewHTTPClient()
	jwt := auth.NewJWTService(cfg.JWTSecret)
	hub := feed.NewHub()

	a.cfg = cfg
	a.repo = repo.New(conn, txManager)
	a.srv = service.New(
		cfg,
		a.repo,
		txManager,
		jwt,
		explorer.New(cfg.ExplorerAddress, httpClient),
		mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	)
	a.api = handlers.New(a.srv, jwt, hub, cfg.CronSecret)
	a.listener = feed.NewListener(pool, hub)
	a.scheduler = scheduler.New(a.srv.DepositService, cfg.ExpireSchedule)
	a.payouts = payout.New(
		cfg,
		a.repo.PayoutRepo,
		a.repo.RefundRepo,
		a.srv.Notifier,
		payout.NewFaucetPay(cfg.FaucetPayAddress, cfg.FaucetPayAPIKey, cfg.Currency, httpClient),
		txManager,
	)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	if err = a.startWorkers(ctx); err != nil {
		return fmt.Errorf("can't start workers: %w", err)
	}

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startWorkers(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		<-a.scheduler.Stop().Done()
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.listener.Run(ctx); err != nil {
			a.errCh <- fmt.Errorf("balance feed exited with error: %w", err)
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.payouts.Run(ctx)
	}()

	return nil
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
