package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ShopForgeHQ/shopforge/app/repository"
	"github.com/ShopForgeHQ/shopforge/internal/pkg/usercontext"
)

const defaultOrderPageSize = 20

// HandleListOrders returns the authenticated user's orders, newest first.
// The post-payment success page polls this while waiting for the webhook.
func HandleListOrders(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * defaultOrderPageSize

	repo := repository.GetGlobalFactory().GetOrderRepository()
	orders, err := repo.ListByUser(userCtx.UserID, offset, defaultOrderPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_list_failed"})
	}
	total, err := repo.CountByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_list_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"orders": orders,
			"total":  total,
			"page":   page,
		},
	})
}

// HandleListSubscriptions returns the authenticated user's subscriptions.
func HandleListSubscriptions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	subs, err := repository.GetGlobalFactory().GetSubscriptionRepository().ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_list_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"subscriptions": subs},
	})
}
