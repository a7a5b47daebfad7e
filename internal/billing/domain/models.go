package domain

import (
	"time"

	productdomain "github.com/tallyworks/tally/internal/product/domain"
)

// Bill is a committed sale. BillDate is set once at creation and never
// changes; edits replace the items and total only.
type Bill struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	CustomerName string    `json:"customer_name" gorm:"type:text"`
	BillDate     time.Time `json:"bill_date" gorm:"not null"`
	TotalCents   int64     `json:"total_cents" gorm:"column:total_cents;not null;default:0"`
}

func (Bill) TableName() string { return "bills" }

// BillItem is one product-quantity line within a bill. LineTotalCents
// captures the product price at the time of sale.
type BillItem struct {
	ID             int64 `json:"id" gorm:"primaryKey"`
	BillID         int64 `json:"bill_id" gorm:"not null;index"`
	ProductID      int64 `json:"product_id" gorm:"not null;index"`
	Quantity       int   `json:"quantity" gorm:"not null"`
	LineTotalCents int64 `json:"line_total_cents" gorm:"column:line_total_cents;not null"`

	Bill    *Bill                  `json:"-" gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
	Product *productdomain.Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (BillItem) TableName() string { return "bill_items" }

// ItemDetail is a bill item joined with its product name for display.
type ItemDetail struct {
	ID             int64
	ProductID      int64
	ProductName    string
	Quantity       int
	LineTotalCents int64
}
