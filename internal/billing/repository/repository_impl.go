package repository

import (
	"context"

	"github.com/tallyworks/tally/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBill(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bills (id, customer_name, bill_date, total_cents)
		 VALUES (?, ?, ?, ?)`,
		bill.ID,
		bill.CustomerName,
		bill.BillDate,
		bill.TotalCents,
	).Error
}

func (r *repo) FindBillByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Bill, error) {
	var b domain.Bill
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_name, bill_date, total_cents FROM bills WHERE id = ?`,
		id,
	).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) FindAllBills(ctx context.Context, db *gorm.DB) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_name, bill_date, total_cents FROM bills ORDER BY id DESC`,
	).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) UpdateBillTotal(ctx context.Context, db *gorm.DB, billID, totalCents int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bills SET total_cents = ? WHERE id = ?`,
		totalCents,
		billID,
	).Error
}

func (r *repo) DeleteBill(ctx context.Context, db *gorm.DB, billID int64) error {
	// Items first; the schema's ON DELETE CASCADE is a backstop, not a
	// dependency, so the behavior is identical on all engines.
	if err := r.DeleteItems(ctx, db, billID); err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM bills WHERE id = ?`, billID).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.BillItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bill_items (id, bill_id, product_id, quantity, line_total_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID,
		item.BillID,
		item.ProductID,
		item.Quantity,
		item.LineTotalCents,
	).Error
}

func (r *repo) FindItemsByBillID(ctx context.Context, db *gorm.DB, billID int64) ([]domain.BillItem, error) {
	var items []domain.BillItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, product_id, quantity, line_total_cents
		 FROM bill_items WHERE bill_id = ? ORDER BY id ASC`,
		billID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindItemDetails(ctx context.Context, db *gorm.DB, billID int64) ([]domain.ItemDetail, error) {
	var details []domain.ItemDetail
	err := db.WithContext(ctx).Raw(
		`SELECT bi.id, bi.product_id, p.name AS product_name, bi.quantity, bi.line_total_cents
		 FROM bill_items bi
		 JOIN products p ON p.id = bi.product_id
		 WHERE bi.bill_id = ?
		 ORDER BY bi.id ASC`,
		billID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, billID int64) error {
	return db.WithContext(ctx).Exec(`DELETE FROM bill_items WHERE bill_id = ?`, billID).Error
}
