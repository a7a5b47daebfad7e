package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the bill ledger's persistence boundary. Callers own the
// transaction scope; no method commits on its own.
type Repository interface {
	InsertBill(ctx context.Context, db *gorm.DB, bill *Bill) error
	FindBillByID(ctx context.Context, db *gorm.DB, id int64) (*Bill, error)
	FindAllBills(ctx context.Context, db *gorm.DB) ([]Bill, error)
	UpdateBillTotal(ctx context.Context, db *gorm.DB, billID, totalCents int64) error
	DeleteBill(ctx context.Context, db *gorm.DB, billID int64) error

	InsertItem(ctx context.Context, db *gorm.DB, item *BillItem) error
	FindItemsByBillID(ctx context.Context, db *gorm.DB, billID int64) ([]BillItem, error)
	FindItemDetails(ctx context.Context, db *gorm.DB, billID int64) ([]ItemDetail, error)
	DeleteItems(ctx context.Context, db *gorm.DB, billID int64) error
}
