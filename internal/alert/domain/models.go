package domain

import (
	"context"
	"time"
)

// LowStockAlert is emitted after a committed bill transaction leaves a
// product at or below its alert threshold.
type LowStockAlert struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	NewStock    int       `json:"new_stock"`
	Threshold   int       `json:"threshold"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Sink receives alerts. Delivery is best effort; a failing sink must not
// affect the bill transaction that produced the alert.
type Sink interface {
	Notify(ctx context.Context, alert LowStockAlert)
}
