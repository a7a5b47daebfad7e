package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Restock(ctx context.Context, id string, quantity int) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Name           string         `json:"name"`
	PriceCents     int64          `json:"price_cents"`
	Stock          int            `json:"stock"`
	AlertThreshold *int           `json:"alert_threshold"`
	Metadata       map[string]any `json:"metadata"`
}

type UpdateRequest struct {
	ID             string
	PriceCents     *int64         `json:"price_cents"`
	AlertThreshold *int           `json:"alert_threshold"`
	Metadata       map[string]any `json:"metadata"`
}

type Response struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	PriceCents     int64          `json:"price_cents"`
	Price          string         `json:"price"`
	Stock          int            `json:"stock"`
	AlertThreshold int            `json:"alert_threshold"`
	LowStock       bool           `json:"low_stock"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrNameTaken         = errors.New("name_taken")
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrInvalidStock      = errors.New("invalid_stock")
	ErrInvalidThreshold  = errors.New("invalid_threshold")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
	ErrProductInUse      = errors.New("product_in_use")
	ErrInsufficientStock = errors.New("insufficient_stock")
)
