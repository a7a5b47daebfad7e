package repository

import (
	"context"
	"time"

	"github.com/tallyworks/tally/internal/report/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

func Provide() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) SummarizeWindow(ctx context.Context, db *gorm.DB, from, to time.Time) (*domain.DayTotals, error) {
	var totals domain.DayTotals
	err := db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS bill_count,
			COALESCE(SUM(total_cents), 0) AS revenue_cents
		FROM bills
		WHERE bill_date >= ? AND bill_date < ?
	`, from, to).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *repositoryImpl) ProductSalesForWindow(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.ProductRow, error) {
	var rows []domain.ProductRow
	err := db.WithContext(ctx).Raw(`
		SELECT
			bi.product_id AS product_id,
			p.name AS product_name,
			SUM(bi.quantity) AS quantity_sold,
			SUM(bi.line_total_cents) AS revenue_cents
		FROM bill_items bi
		JOIN bills b ON b.id = bi.bill_id
		JOIN products p ON p.id = bi.product_id
		WHERE b.bill_date >= ? AND b.bill_date < ?
		GROUP BY bi.product_id, p.name
		ORDER BY revenue_cents DESC
	`, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
