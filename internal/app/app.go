// Package app assembles repositories, services and handlers into the HTTP
// application.
package app

import (
	"context"
	"net/http"

	"taskhub/internal/config"
	"taskhub/internal/domain/admin"
	"taskhub/internal/domain/auth"
	"taskhub/internal/domain/booking"
	"taskhub/internal/domain/business"
	"taskhub/internal/domain/cancellation"
	"taskhub/internal/domain/catalog"
	"taskhub/internal/domain/favorite"
	"taskhub/internal/domain/notification"
	"taskhub/internal/domain/orderfeed"
	checkout "taskhub/internal/domain/payment"
	"taskhub/internal/domain/review"
	"taskhub/internal/events"
	"taskhub/internal/middleware"
	"taskhub/internal/payment"
	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type App struct {
	Router     *gin.Engine
	Reconciler *cancellation.Reconciler

	broker events.Publisher
	hub    *orderfeed.Hub
}

// New wires the application. broker receives every domain event; the
// order feed and the notification inbox are added on top of it.
func New(cfg *config.Config, db *gorm.DB, log *logger.Logger, gateway payment.Gateway, broker events.Publisher) *App {
	loc := cfg.Location()
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := orderfeed.NewHub()
	inbox := notification.NewService(notification.NewRepository(db), log)
	publisher := events.Fanout{broker, orderfeed.NewPublisher(hub), notification.NewPublisher(inbox)}

	// repositories
	bookingRepo := booking.NewRepository(db)
	businessRepo := business.NewRepository(db)
	categoryRepo := catalog.NewRepository(db)
	refundRepo := cancellation.NewRefundRepository(db)

	// services
	bookingService := booking.NewService(bookingRepo, gateway, publisher, loc, log)
	engine := cancellation.NewEngine(bookingRepo, refundRepo, gateway, publisher, cancellation.NewPolicy(cfg.CancellationNotice, loc), log)
	reconciler := cancellation.NewReconciler(bookingRepo, refundRepo, gateway, publisher, log)

	h := handlers{
		auth:         auth.NewHandler(auth.NewService(auth.NewUserRepository(db), tokens, log), log),
		catalog:      catalog.NewHandler(categoryRepo, log),
		business:     business.NewHandler(business.NewService(businessRepo, categoryRepo, log), log),
		review:       review.NewHandler(review.NewRepository(db), log),
		booking:      booking.NewHandler(bookingService, booking.NewCalendar(bookingRepo, loc), log),
		cancellation: cancellation.NewHandler(engine, log),
		reconcile:    cancellation.NewReconcileHandler(reconciler, log),
		checkout:     checkout.NewHandler(checkout.NewService(businessRepo, gateway, cfg.Currency, log), log),
		orderfeed:    orderfeed.NewHandler(hub, cfg.CORSAllowedOrigins, log),
		favorite:     favorite.NewHandler(favorite.NewService(favorite.NewRepository(db), businessRepo, log), log),
		notification: notification.NewHandler(inbox, log),
		admin:        admin.NewHandler(admin.NewService(businessRepo, admin.NewStatsRepository(db), publisher, loc, log), log),
	}

	return &App{
		Router:     newRouter(cfg, db, log, tokens, h),
		Reconciler: reconciler,
		broker:     broker,
		hub:        hub,
	}
}

// Close drops feed connections and flushes the broker.
func (a *App) Close() error {
	a.hub.Close()
	return a.broker.Close()
}

type handlers struct {
	auth         *auth.Handler
	catalog      *catalog.Handler
	business     *business.Handler
	review       *review.Handler
	booking      *booking.Handler
	cancellation *cancellation.Handler
	reconcile    *cancellation.ReconcileHandler
	checkout     *checkout.Handler
	orderfeed    *orderfeed.Handler
	favorite     *favorite.Handler
	notification *notification.Handler
	admin        *admin.Handler
}

func newRouter(cfg *config.Config, db *gorm.DB, log *logger.Logger, tokens *jwt.Service, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Tracing(),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Timeout(cfg.RequestTimeout),
	)

	r.GET("/health", func(c *gin.Context) {
		if err := ping(c.Request.Context(), db); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		h.auth.RegisterPublicRoutes(v1)
		h.catalog.RegisterRoutes(v1)
		h.business.RegisterPublicRoutes(v1, middleware.OptionalAuth(tokens))
		h.review.RegisterRoutes(v1)
		h.booking.RegisterPublicRoutes(v1)

		// protected
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(tokens))
		{
			h.auth.RegisterProtectedRoutes(protected)
			h.business.RegisterProtectedRoutes(protected)
			h.booking.RegisterProtectedRoutes(protected)
			h.cancellation.RegisterRoutes(protected)
			h.checkout.RegisterProtectedRoutes(protected)
			h.orderfeed.RegisterRoutes(protected)
			h.favorite.RegisterRoutes(protected)
			h.notification.RegisterRoutes(protected)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.JWTAuth(tokens), middleware.AdminOnly())
		h.admin.RegisterRoutes(adminGroup)
	}

	internal := r.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(cfg.InternalToken, cfg.InternalAllowedIPs, log))
	h.reconcile.RegisterRoutes(internal)

	return r
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
