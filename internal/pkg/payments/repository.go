package payments

import (
	"time"

	"github.com/ShopForgeHQ/shopforge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the reconciliation service.
type Repository interface {
	GetSubscriptionByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error)
	CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error)
	SaveSubscription(sub *models.Subscription) error
	UpdateSubscriptionStatus(gatewaySubscriptionID, status string) (bool, error)

	GetProductByID(id uint) (*models.Product, error)
	GetAddressByID(id uint) (*models.Address, error)
	SaveUserGatewayCustomerID(userID uint, customerID string) error

	GetOrderByGatewaySessionID(sessionID string) (*models.Order, error)
	CreateSessionOrderIfNotExists(order *models.Order) (bool, error)
	UpsertOrderByInvoiceID(order *models.Order) (bool, error)

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetSubscriptionByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("gateway_subscription_id = ?", gatewaySubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_subscription_id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	// Ensure ID reflects the stored row after a conflict no-op.
	if err := r.db.Where("gateway_subscription_id = ?", sub.GatewaySubscriptionID).First(sub).Error; err != nil {
		return false, err
	}
	return created, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) UpdateSubscriptionStatus(gatewaySubscriptionID, status string) (bool, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("gateway_subscription_id = ?", gatewaySubscriptionID).
		Update("status", status)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetProductByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *gormRepository) GetAddressByID(id uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.First(&address, id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *gormRepository) SaveUserGatewayCustomerID(userID uint, customerID string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("gateway_customer_id", customerID).Error
}

func (r *gormRepository) GetOrderByGatewaySessionID(sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("gateway_session_id = ?", sessionID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) CreateSessionOrderIfNotExists(order *models.Order) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_session_id"}},
		DoNothing: true,
	}).Create(order)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	if order.GatewaySessionID != nil {
		if err := r.db.Where("gateway_session_id = ?", *order.GatewaySessionID).First(order).Error; err != nil {
			return false, err
		}
	}
	return created, nil
}

func (r *gormRepository) UpsertOrderByInvoiceID(order *models.Order) (bool, error) {
	// Duplicate invoice delivery only touches updated_at, nothing else.
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gateway_invoice_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"updated_at": time.Now(),
		}),
	}).Create(order)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected == 1
	if order.GatewayInvoiceID != nil {
		if err := r.db.Where("gateway_invoice_id = ?", *order.GatewayInvoiceID).First(order).Error; err != nil {
			return false, err
		}
	}
	return created, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("gateway_event_id = ?", event.GatewayEventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
