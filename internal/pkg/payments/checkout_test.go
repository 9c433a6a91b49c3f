package payments

import (
	"context"
	"testing"

	"github.com/ShopForgeHQ/shopforge/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckout_PaymentMode(t *testing.T) {
	repo := newFakeRepository()
	repo.products[1] = &models.Product{ID: 1, Name: "Coffee Beans", Price: 12.50}
	repo.products[2] = &models.Product{ID: 2, Name: "Filter Paper", Price: 3.99}
	gateway := &fakeGateway{}
	svc := NewService(repo, gateway)

	user := &models.User{ID: 7, Email: "jane@example.com", Name: "Jane", GatewayCustomerID: "cus_existing"}
	session, err := svc.CreateCheckout(context.Background(), user, CheckoutInput{
		Items: []CheckoutItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		AddressID:  5,
		SuccessURL: "https://shop.test/success",
		CancelURL:  "https://shop.test/cancel",
	}, "payment")
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	// No new customer is created when the user already carries one.
	assert.Equal(t, 0, gateway.customerCalls)

	params := gateway.createdSession
	require.NotNil(t, params)
	assert.Equal(t, "payment", params.Mode)
	assert.Equal(t, "cus_existing", params.CustomerID)
	require.Len(t, params.LineItems, 2)
	// Prices come from the products table, in minor units.
	assert.Equal(t, int64(1250), params.LineItems[0].UnitAmount)
	assert.Equal(t, 2, params.LineItems[0].Quantity)
	assert.Equal(t, int64(399), params.LineItems[1].UnitAmount)
	assert.Equal(t, "7", params.Metadata["user_id"])
	assert.Equal(t, "5", params.Metadata["address_id"])
	_, hasProduct := params.Metadata["product_id"]
	assert.False(t, hasProduct)
}

func TestCreateCheckout_CreatesGatewayCustomer(t *testing.T) {
	repo := newFakeRepository()
	repo.products[1] = &models.Product{ID: 1, Name: "Coffee Beans", Price: 10.00}
	gateway := &fakeGateway{customer: &GatewayCustomer{ID: "cus_new"}}
	svc := NewService(repo, gateway)

	user := &models.User{ID: 7, Email: "jane@example.com", Name: "Jane"}
	_, err := svc.CreateCheckout(context.Background(), user, CheckoutInput{
		Items: []CheckoutItem{{ProductID: 1, Quantity: 1}},
	}, "payment")
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.customerCalls)
	assert.Equal(t, "cus_new", repo.customerIDs[7])
	assert.Equal(t, "cus_new", gateway.createdSession.CustomerID)
}

func TestCreateCheckout_SubscriptionMetadata(t *testing.T) {
	repo := newFakeRepository()
	repo.products[3] = &models.Product{ID: 3, Name: "Coffee Beans", Price: 10.00}
	gateway := &fakeGateway{}
	svc := NewService(repo, gateway)

	user := &models.User{ID: 7, Email: "jane@example.com", GatewayCustomerID: "cus_9"}
	_, err := svc.CreateCheckout(context.Background(), user, CheckoutInput{
		Items: []CheckoutItem{{ProductID: 3, Quantity: 2}},
	}, "subscription")
	require.NoError(t, err)

	params := gateway.createdSession
	require.NotNil(t, params)
	assert.Equal(t, "subscription", params.Mode)
	assert.Equal(t, "3", params.Metadata["product_id"])
	assert.Equal(t, "2", params.Metadata["shipment_quantity"])
}

func TestCreateCheckout_SubscriptionSingleItemRule(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, &fakeGateway{})

	user := &models.User{ID: 7, GatewayCustomerID: "cus_9"}
	_, err := svc.CreateCheckout(context.Background(), user, CheckoutInput{
		Items: []CheckoutItem{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 1},
		},
	}, "subscription")
	assert.Error(t, err)
}

func TestCreateCheckout_UnknownProduct(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{}
	svc := NewService(repo, gateway)

	user := &models.User{ID: 7, GatewayCustomerID: "cus_9"}
	_, err := svc.CreateCheckout(context.Background(), user, CheckoutInput{
		Items: []CheckoutItem{{ProductID: 99, Quantity: 1}},
	}, "payment")
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Nil(t, gateway.createdSession)
}

func TestCreateCheckout_GatewayDown(t *testing.T) {
	repo := newFakeRepository()
	repo.products[1] = &models.Product{ID: 1, Name: "Coffee Beans", Price: 10.00}
	gateway := &fakeGateway{sessionErr: assert.AnError}
	svc := NewService(repo, gateway)

	user := &models.User{ID: 7, GatewayCustomerID: "cus_9"}
	_, err := svc.CreateCheckout(context.Background(), user, CheckoutInput{
		Items: []CheckoutItem{{ProductID: 1, Quantity: 1}},
	}, "payment")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
