package pdf

import (
	"context"
	"io"
)

// Provider renders a printable receipt for a committed bill.
type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type ReceiptData struct {
	StoreName    string
	BillNumber   string
	BillDate     string
	CustomerName string

	Items []ReceiptItem

	Total string
}

type ReceiptItem struct {
	ProductName string
	Qty         int
	UnitPrice   string
	LineTotal   string
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	return nil, nil
}
