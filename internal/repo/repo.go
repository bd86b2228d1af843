package repo

import (
	"github.com/GlebRadaev/dogefaucet/internal/payout"
	"github.com/GlebRadaev/dogefaucet/internal/pg"
	balancerepo "github.com/GlebRadaev/dogefaucet/internal/repo/balance-repo"
	depositrepo "github.com/GlebRadaev/dogefaucet/internal/repo/deposit-repo"
	fingerprintrepo "github.com/GlebRadaev/dogefaucet/internal/repo/fingerprint-repo"
	notificationrepo "github.com/GlebRadaev/dogefaucet/internal/repo/notification-repo"
	transactionrepo "github.com/GlebRadaev/dogefaucet/internal/repo/transaction-repo"
	userrepo "github.com/GlebRadaev/dogefaucet/internal/repo/user-repo"
	"github.com/GlebRadaev/dogefaucet/internal/service/authservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/balanceservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/depositservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/fingerprintservice"
	"github.com/GlebRadaev/dogefaucet/internal/service/notifyservice"
)

type Repositories struct {
	UserRepo         authservice.Repo
	BalanceRepo      balanceservice.BalanceRepo
	CreditRepo       depositservice.BalanceRepo
	Withdrawal       balanceservice.WithdrawalRepo
	DepositRepo      depositservice.DepositRepo
	TransactionRepo  depositservice.TransactionRepo
	PayoutRepo       payout.Repo
	RefundRepo       payout.BalanceRepo
	NotificationRepo notifyservice.Repo
	FingerprintRepo  fingerprintservice.Repo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	userRepo := userrepo.New(conn)
	balanceRepo := balancerepo.New(conn)
	depositRepo := depositrepo.New(conn, txManager)
	transactionRepo := transactionrepo.New(conn)

	return &Repositories{
		UserRepo:         userRepo,
		BalanceRepo:      balanceRepo,
		CreditRepo:       balanceRepo,
		Withdrawal:       transactionRepo,
		DepositRepo:      depositRepo,
		TransactionRepo:  transactionRepo,
		PayoutRepo:       transactionRepo,
		RefundRepo:       balanceRepo,
		NotificationRepo: notificationrepo.New(conn),
		FingerprintRepo:  fingerprintrepo.New(conn),
	}
}
