package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ShopForgeHQ/shopforge/app/models"
	"gorm.io/gorm"
)

// Service reconciles gateway billing state into local subscriptions and
// orders. Both the webhook handlers and the client-triggered fallback path
// run through the same creation code so the two cannot drift.
type Service struct {
	repo    Repository
	gateway GatewayAPI
}

// NewService creates a payments service from injected collaborators.
func NewService(repo Repository, gateway GatewayAPI) *Service {
	return &Service{repo: repo, gateway: gateway}
}

// NewServiceFromDB creates a payments service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway GatewayAPI) *Service {
	return NewService(NewRepository(db), gateway)
}

// MapGatewayStatus translates a gateway subscription status to the local
// state machine. Unrecognized statuses conservatively map to active.
func MapGatewayStatus(gatewayStatus string) string {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case GatewayStatusActive, GatewayStatusTrialing:
		return models.SubscriptionStatusActive
	case GatewayStatusPastDue:
		return models.SubscriptionStatusPastDue
	case GatewayStatusPaused:
		return models.SubscriptionStatusPaused
	case GatewayStatusCanceled:
		return models.SubscriptionStatusCancelled
	default:
		return models.SubscriptionStatusActive
	}
}

// HandleSubscriptionCreated creates the local subscription row for a newly
// confirmed gateway subscription. Missing user metadata aborts without a row;
// an existing row with the same gateway id is a no-op.
func (s *Service) HandleSubscriptionCreated(ctx context.Context, sub *SubscriptionObject) error {
	_ = ctx
	if strings.TrimSpace(sub.ID) == "" {
		return errors.New("subscription event missing gateway subscription id")
	}

	userID := sub.Metadata.UserIDValue()
	if userID == 0 {
		return fmt.Errorf("subscription %s has no user_id metadata, cannot attribute", sub.ID)
	}

	_, created, err := s.createSubscription(NewSubscription{
		UserID:                userID,
		ProductID:             sub.Metadata.ProductIDValue(),
		GatewaySubscriptionID: sub.ID,
		GatewayCustomerID:     sub.Customer,
		ShipmentQuantity:      sub.Metadata.QuantityValue(),
		CurrentPeriodStart:    unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:      unixTime(sub.CurrentPeriodEnd),
	})
	if err != nil {
		return err
	}
	if !created {
		log.Printf("subscription %s already exists, skipping create", sub.ID)
	}
	return nil
}

// HandleSubscriptionUpdated refreshes status and billing window from the
// gateway. This handler is the single source of truth for billing-date
// refresh; it overwrites the window unconditionally.
func (s *Service) HandleSubscriptionUpdated(ctx context.Context, sub *SubscriptionObject) error {
	_ = ctx
	local, err := s.repo.GetSubscriptionByGatewayID(sub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("subscription update for unknown gateway subscription %s, ignoring", sub.ID)
			return nil
		}
		return err
	}

	local.Status = MapGatewayStatus(sub.Status)
	local.CurrentPeriodStart = unixTime(sub.CurrentPeriodStart)
	local.CurrentPeriodEnd = unixTime(sub.CurrentPeriodEnd)
	local.NextBillingDate = unixTime(sub.CurrentPeriodEnd)
	return s.repo.SaveSubscription(local)
}

// HandleSubscriptionDeleted marks the subscription cancelled. Billing window
// fields are left untouched.
func (s *Service) HandleSubscriptionDeleted(ctx context.Context, sub *SubscriptionObject) error {
	_ = ctx
	found, err := s.repo.UpdateSubscriptionStatus(sub.ID, models.SubscriptionStatusCancelled)
	if err != nil {
		return err
	}
	if !found {
		log.Printf("subscription delete for unknown gateway subscription %s, ignoring", sub.ID)
	}
	return nil
}

// HandleInvoicePaid creates one pending order for a recurring billing
// cycle's charge. The subscription must already exist locally; this handler
// never creates one. Duplicate invoice delivery only touches updated_at.
func (s *Service) HandleInvoicePaid(ctx context.Context, inv *Invoice) error {
	_ = ctx
	if strings.TrimSpace(inv.Subscription) == "" {
		// One-off invoice or stripped payload, nothing to attribute.
		log.Printf("invoice %s carries no subscription reference, skipping", inv.ID)
		return nil
	}

	sub, err := s.repo.GetSubscriptionByGatewayID(inv.Subscription)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invoice %s references unknown subscription %s", inv.ID, inv.Subscription)
		}
		return err
	}

	product, err := s.repo.GetProductByID(sub.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("invoice %s: subscription %d references missing product %d", inv.ID, sub.ID, sub.ProductID)
		}
		return err
	}

	invoiceID := inv.ID
	order := &models.Order{
		UserID:      sub.UserID,
		TotalAmount: product.Price * float64(sub.ShipmentQuantity),
		Status:      models.OrderStatusPending,
		// Address resolution happens downstream of the billing core.
		ShippingAddress:  "",
		GatewayInvoiceID: &invoiceID,
		SubscriptionID:   &sub.ID,
	}

	created, err := s.repo.UpsertOrderByInvoiceID(order)
	if err != nil {
		return err
	}
	if !created {
		log.Printf("order for invoice %s already exists (order %d), refreshed updated_at", inv.ID, order.ID)
	}
	return nil
}

// RecordWebhookEvent persists a webhook delivery idempotently. Deliveries
// without a gateway event id are keyed by a payload hash instead.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.GatewayEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		GatewayEventID: eventID,
		EventType:      strings.TrimSpace(in.EventType),
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// createSubscription is the single creation path shared by the webhook and
// fallback reconcilers. Idempotent on gateway_subscription_id.
func (s *Service) createSubscription(in NewSubscription) (*models.Subscription, bool, error) {
	if in.UserID == 0 || strings.TrimSpace(in.GatewaySubscriptionID) == "" {
		return nil, false, errors.New("user_id and gateway_subscription_id are required")
	}

	quantity := in.ShipmentQuantity
	if quantity < 1 {
		quantity = 1
	}

	sub := &models.Subscription{
		UserID:                in.UserID,
		ProductID:             in.ProductID,
		GatewaySubscriptionID: strings.TrimSpace(in.GatewaySubscriptionID),
		GatewayCustomerID:     strings.TrimSpace(in.GatewayCustomerID),
		Status:                models.SubscriptionStatusActive,
		ShipmentQuantity:      quantity,
		CurrentPeriodStart:    in.CurrentPeriodStart,
		CurrentPeriodEnd:      in.CurrentPeriodEnd,
		NextBillingDate:       in.CurrentPeriodEnd,
	}
	created, err := s.repo.CreateSubscriptionIfNotExists(sub)
	if err != nil {
		return nil, false, err
	}
	return sub, created, nil
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
