package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the catalog's persistence boundary. Every method runs against
// the handle it is given, so callers decide the transaction scope.
type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	// FindByIDForUpdate locks the product row for the duration of the
	// caller's transaction on engines that support row locks.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	// AdjustStock applies a read-modify-write stock delta within the caller's
	// transaction and returns the new stock. A delta that would take stock
	// negative fails with ErrInsufficientStock and writes nothing.
	AdjustStock(ctx context.Context, db *gorm.DB, id int64, delta int) (int, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
