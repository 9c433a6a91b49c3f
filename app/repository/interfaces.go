package repository

import (
	"github.com/ShopForgeHQ/shopforge/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
}

// ProductRepository defines the interface for product reads used by the
// storefront core
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	ListActive(offset, limit int) ([]models.Product, error)
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	GetByID(id uint) (*models.Order, error)
	ListByUser(userID uint, offset, limit int) ([]models.Order, error)
	CountByUser(userID uint) (int64, error)
}

// SubscriptionRepository defines read access to local subscription state
type SubscriptionRepository interface {
	ListByUser(userID uint) ([]models.Subscription, error)
}
