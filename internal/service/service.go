package service

import (
	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/handlers/auth"
	"github.com/GlebRadaev/dogefaucet/internal/handlers/balance"
	"github.com/GlebRadaev/dogefaucet/internal/handlers/deposits"
	"github.com/GlebRadaev/dogefaucet/internal/handlers/fingerprint"
	"github.com/GlebRadaev/dogefaucet/internal/handlers/notifications"
	"github.com/GlebRadaev/dogefaucet/internal/payout"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
	"github.com/GlebRadaev/dogefaucet/internal/repo"
	"github.com/GlebRadaev/dogefaucet/internal/service/authservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/balanceservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/depositservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/fingerprintservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/notifyservice"
	pkgauth "github.com/GlebRadaev/dogefaucet/pkg/auth"
)

type Services struct {
	AuthService        auth.Service
	BalanceService     balance.Service
	DepositService     deposits.Service
	NotifyService      notifications.Service
	FingerprintService fingerprint.Service
	Notifier           payout.Notifier
}

func New(
	cfg *config.Config,
	repo *repo.Repositories,
	txManager pg.TXManager,
	jwt pkgauth.JWTServiceInterface,
	explorer depositservice.Explorer,
	mailer depositservice.Mailer,
) *Services {
	notifyService := notifyservice.New(repo.NotificationRepo)
	balanceService := balanceservice.New(cfg, repo.BalanceRepo, repo.Withdrawal, notifyService, txManager)
	authService := authservice.New(repo.UserRepo, balanceService, &pkgauth.HashService{}, jwt, txManager, cfg.JWTTTL)
	depositService := depositservice.New(
		cfg,
		repo.DepositRepo,
		repo.TransactionRepo,
		repo.CreditRepo,
		explorer,
		mailer,
		notifyService,
		txManager,
	)

	return &Services{
		AuthService:        authService,
		BalanceService:     balanceService,
		DepositService:     depositService,
		NotifyService:      notifyService,
		FingerprintService: fingerprintservice.New(cfg, repo.FingerprintRepo),
		Notifier:           notifyService,
	}
}
