package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Service interface {
	// Create converts a cart into a committed bill. An empty cart is a no-op:
	// it returns (nil, nil) and performs no store writes.
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	// Edit atomically replaces a bill's items, restoring the stock of the old
	// items and consuming stock for the new ones in one transaction. An empty
	// new cart aborts the edit with ErrEmptyEdit and leaves the bill intact.
	Edit(ctx context.Context, id string, lines []CartLine) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Delete(ctx context.Context, id string) error
}

// CartLine is one not-yet-persisted (product, quantity) selection.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateRequest struct {
	CustomerName string     `json:"customer_name"`
	Lines        []CartLine `json:"lines"`
}

type LineResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
	LineTotal      string `json:"line_total"`
}

type Response struct {
	ID           string         `json:"id"`
	CustomerName string         `json:"customer_name"`
	BillDate     time.Time      `json:"bill_date"`
	TotalCents   int64          `json:"total_cents"`
	Total        string         `json:"total"`
	Items        []LineResponse `json:"items,omitempty"`
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrBillNotFound      = errors.New("bill_not_found")
	ErrProductNotFound   = errors.New("product_not_found")
	ErrEmptyEdit         = errors.New("empty_edit")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// InsufficientStockError carries the detail of a failed stock check. It
// matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
