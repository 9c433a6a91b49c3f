package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ShopForgeHQ/shopforge/app/repository"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/cache"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/database"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/env"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/payments"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/usercontext"
)

const confirmedSessionCacheTTL = 24 * time.Hour

type confirmCheckoutRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// HandleCreateCheckout creates a gateway checkout session in payment mode.
func HandleCreateCheckout(c *fiber.Ctx) error {
	return createCheckoutSession(c, "payment")
}

// HandleCreateSubscriptionCheckout creates a gateway checkout session in
// subscription mode.
func HandleCreateSubscriptionCheckout(c *fiber.Ctx) error {
	return createCheckoutSession(c, "subscription")
}

func createCheckoutSession(c *fiber.Ctx, mode string) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var in payments.CheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	if err := validator.New().Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000")
	if in.SuccessURL == "" {
		in.SuccessURL = base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if in.CancelURL == "" {
		in.CancelURL = base + "/checkout/cancelled"
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_lookup_failed"})
	}

	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewGatewayClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := svc.CreateCheckout(ctx, user, in, mode)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUnknownProduct):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_product"})
		case errors.Is(err, payments.ErrGatewayUnavailable):
			log.Printf("checkout session creation failed: %v", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_unavailable"})
		default:
			log.Printf("checkout session creation failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_failed"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"session": session},
	})
}

// HandleConfirmCheckout is the client-triggered fallback reconciler: the
// success page calls it when the webhook-created order has not shown up yet.
func HandleConfirmCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req confirmCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid JSON body"})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "session_id is required"})
	}

	// Repeated polling for an already-confirmed session is served from cache.
	cacheKey := confirmedSessionCacheKey(userCtx.UserID, req.SessionID)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).SendString(cached)
	}

	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewGatewayClientFromEnv())
	result, err := svc.ReconcileCheckoutSession(c.Context(), userCtx.UserID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotSessionOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": err.Error()})
		case errors.Is(err, payments.ErrPaymentIncomplete):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "payment_incomplete", "message": err.Error()})
		case errors.Is(err, payments.ErrGatewayUnavailable):
			log.Printf("fallback reconciliation failed for session %s: %v", req.SessionID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_unavailable", "message": "could not verify session, retry later"})
		default:
			log.Printf("fallback reconciliation failed for session %s: %v", req.SessionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reconciliation_failed"})
		}
	}

	response := fiber.Map{"success": true, "data": result}
	if encoded, jsonErr := json.Marshal(response); jsonErr == nil {
		if cacheErr := cache.Set(cacheKey, string(encoded), confirmedSessionCacheTTL); cacheErr != nil {
			log.Printf("failed to cache confirmed session %s: %v", req.SessionID, cacheErr)
		}
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// Key includes the user id so a cached result can never serve another
// caller; the ownership check only runs on the uncached path.
func confirmedSessionCacheKey(userID uint, sessionID string) string {
	return fmt.Sprintf("checkout:confirmed:%d:%s", userID, sessionID)
}
