package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DayTotals is the header aggregate of a day's bills.
type DayTotals struct {
	BillCount    int64 `json:"bill_count"`
	RevenueCents int64 `json:"revenue_cents"`
}

// ProductRow is a per-product sales aggregate over a window.
type ProductRow struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	RevenueCents int64  `json:"revenue_cents"`
}

type Repository interface {
	SummarizeWindow(ctx context.Context, db *gorm.DB, from, to time.Time) (*DayTotals, error)
	ProductSalesForWindow(ctx context.Context, db *gorm.DB, from, to time.Time) ([]ProductRow, error)
}
