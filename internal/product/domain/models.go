package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Product struct {
	ID             int64             `json:"id" gorm:"primaryKey"`
	Name           string            `json:"name" gorm:"type:text;not null;uniqueIndex:ux_products_name"`
	PriceCents     int64             `json:"price_cents" gorm:"column:price_cents;not null"`
	Stock          int               `json:"stock" gorm:"not null;default:0"`
	AlertThreshold int               `json:"alert_threshold" gorm:"not null;default:5"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// LowStock reports whether the product is at or below its alert threshold.
func (p Product) LowStock() bool { return p.Stock <= p.AlertThreshold }
