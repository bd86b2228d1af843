package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/dogefaucet/docs"
	authhandlers "github.com/GlebRadaev/dogefaucet/internal/handlers/auth"
	balancehandlers "github.com/GlebRadaev/dogefaucet/internal/handlers/balance"
	deposithandlers "github.com/GlebRadaev/dogefaucet/internal/handlers/deposits"
	fingerprinthandlers "github.com/GlebRadaev/dogefaucet/internal/handlers/fingerprint"
	notificationhandlers "github.com/GlebRadaev/dogefaucet/internal/handlers/notifications"
	"github.com/GlebRadaev/dogefaucet/internal/service"
	"github.com/GlebRadaev/dogefaucet/pkg/auth"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	ClaimMining(w http.ResponseWriter, r *http.Request)
	ApplyReferral(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	GetWithdrawals(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
	AdminAddBalance(w http.ResponseWriter, r *http.Request)
	AdminSubtractBalance(w http.ResponseWriter, r *http.Request)
}

type DepositHandler interface {
	CreateFaucetPay(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	ExpireCron(w http.ResponseWriter, r *http.Request)
}

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	MarkRead(w http.ResponseWriter, r *http.Request)
	MarkAllRead(w http.ResponseWriter, r *http.Request)
}

type FingerprintHandler interface {
	Validate(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler         AuthHandler
	BalanceHandler      BalanceHandler
	DepositHandler      DepositHandler
	NotificationHandler NotificationHandler
	FingerprintHandler  FingerprintHandler

	middleware *auth.Middleware
}

func New(s *service.Services, jwt auth.JWTServiceInterface, feed balancehandlers.Subscriber, cronSecret string) *Handlers {
	return &Handlers{
		AuthHandler:         authhandlers.New(s.AuthService),
		BalanceHandler:      balancehandlers.New(s.BalanceService, feed),
		DepositHandler:      deposithandlers.New(s.DepositService, cronSecret),
		NotificationHandler: notificationhandlers.New(s.NotifyService),
		FingerprintHandler:  fingerprinthandlers.New(s.FingerprintService),
		middleware:          auth.NewMiddleware(jwt),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", deposithandlers.CronSecretHeader},
			ExposedHeaders: []string{"Authorization"},
			MaxAge:         300,
		}),
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.AuthHandler.Register)
			r.Post("/login", h.AuthHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.middleware.Required)
				r.Route("/balance", func(r chi.Router) {
					r.Get("/", h.BalanceHandler.GetBalance)
					r.Post("/mining/claim", h.BalanceHandler.ClaimMining)
					r.Post("/referral", h.BalanceHandler.ApplyReferral)
					r.Post("/withdraw", h.BalanceHandler.Withdraw)
					r.Get("/stream", h.BalanceHandler.Stream)
				})
				r.Get("/withdrawals", h.BalanceHandler.GetWithdrawals)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.middleware.Required)
			r.Route("/deposits", func(r chi.Router) {
				r.Get("/", h.DepositHandler.List)
				r.Post("/faucetpay", h.DepositHandler.CreateFaucetPay)
				r.Post("/verify", h.DepositHandler.Verify)
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.NotificationHandler.List)
				r.Post("/{id}/read", h.NotificationHandler.MarkRead)
				r.Post("/read-all", h.NotificationHandler.MarkAllRead)
			})
		})

		r.Post("/cron/expire-deposits", h.DepositHandler.ExpireCron)

		r.With(h.middleware.Optional).Post("/fingerprint/validate", h.FingerprintHandler.Validate)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.middleware.AdminOnly)
			r.Post("/balance/add", h.BalanceHandler.AdminAddBalance)
			r.Post("/balance/subtract", h.BalanceHandler.AdminSubtractBalance)
		})
	})

	return r
}
