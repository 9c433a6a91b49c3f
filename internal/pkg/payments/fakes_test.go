package payments

import (
	"context"
	"time"

	"github.com/ShopForgeHQ/shopforge/app/models"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository used by the service tests.
type fakeRepository struct {
	subsByGatewayID map[string]*models.Subscription
	products        map[uint]*models.Product
	addresses       map[uint]*models.Address
	ordersByInvoice map[string]*models.Order
	ordersBySession map[string]*models.Order
	customerIDs     map[uint]string
	events          map[string]*models.WebhookEvent
	processedErrors map[uint]string

	nextSubID   uint
	nextOrderID uint
	nextEventID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		subsByGatewayID: map[string]*models.Subscription{},
		products:        map[uint]*models.Product{},
		addresses:       map[uint]*models.Address{},
		ordersByInvoice: map[string]*models.Order{},
		ordersBySession: map[string]*models.Order{},
		customerIDs:     map[uint]string{},
		events:          map[string]*models.WebhookEvent{},
		processedErrors: map[uint]string{},
	}
}

func (f *fakeRepository) GetSubscriptionByGatewayID(gatewayID string) (*models.Subscription, error) {
	if sub, ok := f.subsByGatewayID[gatewayID]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	if stored, ok := f.subsByGatewayID[sub.GatewaySubscriptionID]; ok {
		*sub = *stored
		return false, nil
	}
	f.nextSubID++
	sub.ID = f.nextSubID
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	copied := *sub
	f.subsByGatewayID[sub.GatewaySubscriptionID] = &copied
	return true, nil
}

func (f *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	copied := *sub
	copied.UpdatedAt = time.Now()
	f.subsByGatewayID[sub.GatewaySubscriptionID] = &copied
	return nil
}

func (f *fakeRepository) UpdateSubscriptionStatus(gatewayID, status string) (bool, error) {
	sub, ok := f.subsByGatewayID[gatewayID]
	if !ok {
		return false, nil
	}
	sub.Status = status
	sub.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRepository) GetProductByID(id uint) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetAddressByID(id uint) (*models.Address, error) {
	if a, ok := f.addresses[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveUserGatewayCustomerID(userID uint, customerID string) error {
	f.customerIDs[userID] = customerID
	return nil
}

func (f *fakeRepository) GetOrderByGatewaySessionID(sessionID string) (*models.Order, error) {
	if o, ok := f.ordersBySession[sessionID]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateSessionOrderIfNotExists(order *models.Order) (bool, error) {
	if order.GatewaySessionID != nil {
		if stored, ok := f.ordersBySession[*order.GatewaySessionID]; ok {
			*order = *stored
			return false, nil
		}
	}
	f.nextOrderID++
	order.ID = f.nextOrderID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	if order.GatewaySessionID != nil {
		f.ordersBySession[*order.GatewaySessionID] = &copied
	}
	return true, nil
}

func (f *fakeRepository) UpsertOrderByInvoiceID(order *models.Order) (bool, error) {
	if order.GatewayInvoiceID != nil {
		if stored, ok := f.ordersByInvoice[*order.GatewayInvoiceID]; ok {
			stored.UpdatedAt = stored.UpdatedAt.Add(time.Millisecond)
			*order = *stored
			return false, nil
		}
	}
	f.nextOrderID++
	order.ID = f.nextOrderID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	if order.GatewayInvoiceID != nil {
		f.ordersByInvoice[*order.GatewayInvoiceID] = &copied
	}
	return true, nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if stored, ok := f.events[event.GatewayEventID]; ok {
		copied := *stored
		return false, &copied, nil
	}
	f.nextEventID++
	event.ID = f.nextEventID
	event.CreatedAt = time.Now()
	copied := *event
	f.events[event.GatewayEventID] = &copied
	stored := copied
	return true, &stored, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	f.processedErrors[id] = processingError
	return nil
}

// fakeGateway is a scripted GatewayAPI for service tests.
type fakeGateway struct {
	customer    *GatewayCustomer
	customerErr error

	session    *CheckoutSession
	sessionErr error

	createdSession *CheckoutSessionParams

	customerCalls int
	fetchCalls    int
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email, name string, userID uint) (*GatewayCustomer, error) {
	g.customerCalls++
	if g.customerErr != nil {
		return nil, g.customerErr
	}
	if g.customer != nil {
		return g.customer, nil
	}
	return &GatewayCustomer{ID: "cus_fake", Email: email}, nil
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	g.createdSession = &params
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &CheckoutSession{ID: "cs_fake", URL: "https://gateway.test/pay/cs_fake", Mode: params.Mode}, nil
}

func (g *fakeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	g.fetchCalls++
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	return g.session, nil
}
