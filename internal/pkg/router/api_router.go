package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/ShopForgeHQ/shopforge/app/controllers"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/env"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Webhook delivery is registered outside the rate-limited group: the
	// gateway controls retry cadence and must never be throttled into a
	// retry storm.
	app.Post("/api/v1/webhooks/gateway", controllers.HandleGatewayWebhook)

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	authed := v1.Group("", middleware.APIKeyAuthMiddleware())
	authed.Post("/checkout", controllers.HandleCreateCheckout)
	authed.Post("/checkout/subscription", controllers.HandleCreateSubscriptionCheckout)
	authed.Post("/checkout/confirm", controllers.HandleConfirmCheckout)
	authed.Get("/orders", controllers.HandleListOrders)
	authed.Get("/subscriptions", controllers.HandleListSubscriptions)
}

func newLimiterStorage() fiber.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host: env.GetEnv("CACHE_HOST", "localhost"),
		Port: port,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
