package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ShopForgeHQ/shopforge/app/models"
	"gorm.io/gorm"
)

// Typed failures of the fallback reconciliation path. Controllers map these
// to distinct HTTP statuses.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrPaymentIncomplete  = errors.New("payment not completed")
	ErrNotSessionOwner    = errors.New("checkout session does not belong to this user")
)

// SessionResult is the outcome of reconciling a checkout session: exactly
// one of Order or Subscription is set depending on the session mode.
type SessionResult struct {
	Order          *models.Order        `json:"order,omitempty"`
	Subscription   *models.Subscription `json:"subscription,omitempty"`
	AlreadyExisted bool                 `json:"already_existed"`
}

// ReconcileCheckoutSession re-derives order/subscription state directly from
// the gateway when the asynchronous webhook has not (yet) arrived. It is
// safe to race with webhook delivery: both paths are idempotent on the same
// gateway keys.
func (s *Service) ReconcileCheckoutSession(ctx context.Context, userID uint, sessionID string) (*SessionResult, error) {
	id := strings.TrimSpace(sessionID)
	if userID == 0 || id == "" {
		return nil, errors.New("user_id and session_id are required")
	}

	// Fast path: the webhook (or an earlier call) already created the order.
	// The owner check runs here too so a guessed session id never reads
	// another user's order out of the local table.
	if order, err := s.repo.GetOrderByGatewaySessionID(id); err == nil {
		if order.UserID != userID {
			return nil, ErrNotSessionOwner
		}
		return &SessionResult{Order: order, AlreadyExisted: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session, err := s.gateway.GetCheckoutSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if session.PaymentStatus != "paid" {
		return nil, ErrPaymentIncomplete
	}
	// Ownership check prevents session-id enumeration from exposing another
	// user's order.
	if session.Metadata.UserIDValue() != userID {
		return nil, ErrNotSessionOwner
	}

	switch session.Mode {
	case "subscription":
		return s.reconcileSubscriptionSession(session)
	case "payment":
		return s.reconcilePaymentSession(session)
	default:
		return nil, fmt.Errorf("unsupported session mode: %q", session.Mode)
	}
}

func (s *Service) reconcileSubscriptionSession(session *CheckoutSession) (*SessionResult, error) {
	if strings.TrimSpace(session.Subscription) == "" {
		return nil, fmt.Errorf("paid subscription session %s carries no subscription id", session.ID)
	}

	// Billing window is unknown from the session object; the subsequent
	// subscription.updated webhook refreshes it.
	sub, created, err := s.createSubscription(NewSubscription{
		UserID:                session.Metadata.UserIDValue(),
		ProductID:             session.Metadata.ProductIDValue(),
		GatewaySubscriptionID: session.Subscription,
		GatewayCustomerID:     session.Customer,
		ShipmentQuantity:      session.Metadata.QuantityValue(),
	})
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("fallback created subscription %s for session %s", session.Subscription, session.ID)
	}
	return &SessionResult{Subscription: sub, AlreadyExisted: !created}, nil
}

func (s *Service) reconcilePaymentSession(session *CheckoutSession) (*SessionResult, error) {
	shippingAddress := ""
	if addressID := session.Metadata.AddressIDValue(); addressID > 0 {
		address, err := s.repo.GetAddressByID(addressID)
		switch {
		case err == nil:
			if encoded, jsonErr := json.Marshal(address); jsonErr == nil {
				shippingAddress = string(encoded)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Printf("session %s references missing address %d", session.ID, addressID)
		default:
			return nil, err
		}
	}

	sessionID := session.ID
	order := &models.Order{
		UserID:           session.Metadata.UserIDValue(),
		TotalAmount:      float64(session.AmountTotal) / 100,
		Status:           models.OrderStatusCompleted,
		ShippingAddress:  shippingAddress,
		GatewaySessionID: &sessionID,
	}
	created, err := s.repo.CreateSessionOrderIfNotExists(order)
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("fallback created order %d for session %s", order.ID, session.ID)
	}
	return &SessionResult{Order: order, AlreadyExisted: !created}, nil
}
