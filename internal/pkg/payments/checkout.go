package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ShopForgeHQ/shopforge/app/models"
	"gorm.io/gorm"
)

// ErrUnknownProduct is returned when a cart references a product that does
// not exist (or is inactive).
var ErrUnknownProduct = errors.New("unknown product in cart")

// CreateCheckout builds a gateway checkout session for the user's cart.
// Prices always come from the products table, never from the client. For
// subscription mode the cart must contain exactly one line; its product and
// quantity are carried in the session metadata so the webhook and fallback
// reconcilers can rebuild the subscription row from them.
func (s *Service) CreateCheckout(ctx context.Context, user *models.User, in CheckoutInput, mode string) (*CheckoutSession, error) {
	if user == nil || user.ID == 0 {
		return nil, errors.New("authenticated user is required")
	}
	if mode == "subscription" && len(in.Items) != 1 {
		return nil, errors.New("subscription checkout requires exactly one item")
	}

	lineItems := make([]SessionLineItem, 0, len(in.Items))
	for _, item := range in.Items {
		product, err := s.repo.GetProductByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, item.ProductID)
			}
			return nil, err
		}
		lineItems = append(lineItems, SessionLineItem{
			Name:       product.Name,
			UnitAmount: int64(math.Round(product.Price * 100)),
			Quantity:   item.Quantity,
		})
	}

	customerID := user.GatewayCustomerID
	if customerID == "" {
		customer, err := s.gateway.CreateCustomer(ctx, user.Email, user.Name, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		customerID = customer.ID
		if err := s.repo.SaveUserGatewayCustomerID(user.ID, customerID); err != nil {
			return nil, err
		}
	}

	metadata := map[string]string{
		"user_id": strconv.FormatUint(uint64(user.ID), 10),
	}
	if in.AddressID > 0 {
		metadata["address_id"] = strconv.FormatUint(uint64(in.AddressID), 10)
	}
	if mode == "subscription" {
		metadata["product_id"] = strconv.FormatUint(uint64(in.Items[0].ProductID), 10)
		metadata["shipment_quantity"] = strconv.Itoa(in.Items[0].Quantity)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionParams{
		Mode:       mode,
		CustomerID: customerID,
		SuccessURL: in.SuccessURL,
		CancelURL:  in.CancelURL,
		LineItems:  lineItems,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return session, nil
}
