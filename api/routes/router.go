package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexylabs/nexyshop-backend/api/controllers"
	webhookcontrollers "github.com/nexylabs/nexyshop-backend/api/controllers/webhooks"
	"github.com/nexylabs/nexyshop-backend/api/middleware"
	"github.com/nexylabs/nexyshop-backend/internal/auth"
	"github.com/nexylabs/nexyshop-backend/internal/catalog"
	checkoutsvc "github.com/nexylabs/nexyshop-backend/internal/checkout"
	"github.com/nexylabs/nexyshop-backend/internal/inventory"
	"github.com/nexylabs/nexyshop-backend/internal/messages"
	"github.com/nexylabs/nexyshop-backend/internal/orders"
	stripewebhook "github.com/nexylabs/nexyshop-backend/internal/webhooks/stripe"
	"github.com/nexylabs/nexyshop-backend/pkg/auth/session"
	"github.com/nexylabs/nexyshop-backend/pkg/config"
	"github.com/nexylabs/nexyshop-backend/pkg/db"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
	"github.com/nexylabs/nexyshop-backend/pkg/redis"
	"github.com/nexylabs/nexyshop-backend/pkg/stripe"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.Checker
	Metrics        http.Handler

	AuthService      auth.Service
	CatalogService   catalog.Service
	CheckoutService  checkoutsvc.Service
	OrdersService    orders.Service
	MessagesService  messages.Service
	InventoryService inventory.Service

	StripeClient   *stripe.Client
	WebhookService *stripewebhook.Service
	WebhookGuard   *stripewebhook.EventGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.WebhookService, deps.StripeClient, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/packs", controllers.Packs(deps.CatalogService, logg))
		r.Get("/storefront", controllers.Storefront(deps.CatalogService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
				r.Get("/me", controllers.AuthMe(deps.AuthService, logg))
				r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

			r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))
			r.Get("/orders", controllers.OrdersList(deps.OrdersService, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", controllers.MessagesList(deps.MessagesService, logg))
				r.Get("/unread-count", controllers.MessagesUnreadCount(deps.MessagesService, logg))
				r.Put("/mark-all-read", controllers.MessagesMarkAllRead(deps.MessagesService, logg))
				r.Put("/{messageId}/read", controllers.MessageMarkRead(deps.MessagesService, logg))
				r.Put("/{messageId}/unread", controllers.MessageMarkUnread(deps.MessagesService, logg))
				r.Delete("/{messageId}", controllers.MessageDelete(deps.MessagesService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(deps.CatalogService, logg))
			r.Put("/{categoryId}", controllers.AdminUpdateCategory(deps.CatalogService, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.CatalogService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(deps.CatalogService, logg))
			r.Put("/{productId}", controllers.AdminUpdateProduct(deps.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.CatalogService, logg))
		})

		r.Route("/packs", func(r chi.Router) {
			r.Post("/", controllers.AdminCreatePack(deps.CatalogService, logg))
			r.Put("/{packId}", controllers.AdminUpdatePack(deps.CatalogService, logg))
			r.Post("/{packId}/codes", controllers.AdminImportCodes(deps.InventoryService, logg))
			r.Get("/{packId}/codes/remaining", controllers.AdminRemainingCodes(deps.InventoryService, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Post("/", controllers.AdminCreatePromotion(deps.CatalogService, logg))
			r.Put("/{promotionId}", controllers.AdminUpdatePromotion(deps.CatalogService, logg))
			r.Delete("/{promotionId}", controllers.AdminDeletePromotion(deps.CatalogService, logg))
		})

		r.Put("/contents", controllers.AdminUpsertContent(deps.CatalogService, logg))
		r.Put("/settings", controllers.AdminUpsertSetting(deps.CatalogService, logg))
	})

	return r
}
