package domain

import (
	"context"
	"errors"
)

// Service aggregates committed sales for reporting. Reads only; nothing
// here mutates the store.
type Service interface {
	// DailySummary summarizes the bills of a single calendar day.
	// date is "YYYY-MM-DD" in UTC; empty means today.
	DailySummary(ctx context.Context, date string) (*Summary, error)
}

type Summary struct {
	Date         string        `json:"date"`
	BillCount    int64         `json:"bill_count"`
	RevenueCents int64         `json:"revenue_cents"`
	Revenue      string        `json:"revenue"`
	Products     []ProductSale `json:"products"`
}

// ProductSale is one product's share of a day's sales.
type ProductSale struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	RevenueCents int64  `json:"revenue_cents"`
	Revenue      string `json:"revenue"`
}

var ErrInvalidDate = errors.New("invalid_date")
