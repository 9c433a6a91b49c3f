package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ShopForgeHQ/shopforge/internal/pkg/database"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/env"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/payments"
)

// HandleGatewayWebhook receives asynchronous billing events from the payment
// gateway. Signature failures are the only rejections; handler failures are
// recorded but still acknowledged so the gateway does not retry poison
// events forever. A datastore outage returns 500 so delivery IS retried.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_signature"})
	}

	secret := env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")
	if !payments.VerifySignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, err := payments.ParseEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "datastore_unavailable"})
	}

	svc := payments.NewServiceFromDB(db, payments.NewGatewayClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, err := svc.RecordWebhookEvent(ctx, payments.WebhookEventInput{
		GatewayEventID: event.ID,
		EventType:      event.Type,
		PayloadJSON:    string(rawBody),
		SignatureValid: true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	}

	dispatchErr := payments.NewDispatcher(svc).Dispatch(ctx, event)
	if err := svc.MarkWebhookProcessed(ctx, stored.ID, dispatchErr); err != nil {
		log.Printf("failed to mark webhook event %d processed: %v", stored.ID, err)
	}

	// Soft failures still acknowledge delivery.
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
