package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/gigmarket-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/gigmarket-backend/api/controllers/admin"
	ordercontrollers "github.com/angelmondragon/gigmarket-backend/api/controllers/orders"
	walletcontrollers "github.com/angelmondragon/gigmarket-backend/api/controllers/wallet"
	"github.com/angelmondragon/gigmarket-backend/api/middleware"
	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/internal/notifications"
	"github.com/angelmondragon/gigmarket-backend/internal/orders"
	"github.com/angelmondragon/gigmarket-backend/internal/withdrawals"
	"github.com/angelmondragon/gigmarket-backend/pkg/config"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/gigmarket-backend/pkg/redis"
)

// RedisStore is the Redis surface used by the HTTP stack.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Services are the domain services exposed over HTTP.
type Services struct {
	Orders        orders.Service
	Ledger        ledger.Service
	Withdrawals   withdrawals.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var (
		idemStore pkgredis.IdempotencyStore
		rateStore interface {
			FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
		}
		redisPinger controllers.Pinger
	)
	if redisStore != nil {
		idemStore, rateStore, redisPinger = redisStore, redisStore, redisStore
	}
	writePolicy := middleware.NewRateLimitPolicy("writes", cfg.RateLimit.Window, cfg.RateLimit.WriteLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisPinger,
		}))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(writePolicy, rateStore, logg))
		r.Use(middleware.Idempotency(idemStore, cfg.Eventing.HTTPIdempotencyTTL, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleCustomer)).Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svc.Orders, logg))
				r.Post("/pay", ordercontrollers.Pay(svc.Orders, logg))
				r.Post("/accept", ordercontrollers.Accept(svc.Orders, logg))
				r.Post("/reject", ordercontrollers.Reject(svc.Orders, logg))
				r.Post("/submit", ordercontrollers.Submit(svc.Orders, logg))
				r.Post("/cancel", ordercontrollers.Cancel(svc.Orders, logg))
				r.Post("/complete", ordercontrollers.Complete(svc.Orders, logg))
				r.Post("/dispute", ordercontrollers.Dispute(svc.Orders, logg))
				r.Post("/review", ordercontrollers.Review(svc.Orders, logg))
			})
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", walletcontrollers.GetWallet(svc.Ledger, logg))
			r.Get("/entries", walletcontrollers.ListEntries(svc.Ledger, logg))
			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/", walletcontrollers.ListWithdrawals(svc.Withdrawals, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleWorker, enums.UserRoleCustomer)).Post("/", walletcontrollers.RequestWithdrawal(svc.Withdrawals, logg))
				r.Get("/{withdrawalId}", walletcontrollers.GetWithdrawal(svc.Withdrawals, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Use(middleware.Idempotency(idemStore, cfg.Eventing.HTTPIdempotencyTTL, logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", admincontrollers.ListPendingWithdrawals(svc.Withdrawals, logg))
			r.Post("/{withdrawalId}/approve", admincontrollers.ApproveWithdrawal(svc.Withdrawals, logg))
			r.Post("/{withdrawalId}/reject", admincontrollers.RejectWithdrawal(svc.Withdrawals, logg))
		})
		r.Get("/wallets/{userId}/reconcile", admincontrollers.ReconcileWallet(svc.Ledger, logg))
	})

	return r
}
