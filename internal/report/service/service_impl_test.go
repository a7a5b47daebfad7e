package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billingdomain "github.com/tallyworks/tally/internal/billing/domain"
	"github.com/tallyworks/tally/internal/clock"
	productdomain "github.com/tallyworks/tally/internal/product/domain"
	"github.com/tallyworks/tally/internal/report/domain"
	"github.com/tallyworks/tally/internal/report/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupReportService(t *testing.T, now time.Time) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&productdomain.Product{},
		&billingdomain.Bill{},
		&billingdomain.BillItem{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(now),
	})

	return svc, db, node
}

func seedSale(t *testing.T, db *gorm.DB, node *snowflake.Node, productName string, priceCents int64, qty int, billDate time.Time) {
	t.Helper()

	productID := node.Generate().Int64()
	require.NoError(t, db.Create(&productdomain.Product{
		ID:         productID,
		Name:       productName,
		PriceCents: priceCents,
		Stock:      100,
		CreatedAt:  billDate,
		UpdatedAt:  billDate,
	}).Error)

	lineTotal := priceCents * int64(qty)
	billID := node.Generate().Int64()
	require.NoError(t, db.Create(&billingdomain.Bill{
		ID:         billID,
		BillDate:   billDate,
		TotalCents: lineTotal,
	}).Error)
	require.NoError(t, db.Create(&billingdomain.BillItem{
		ID:             node.Generate().Int64(),
		BillID:         billID,
		ProductID:      productID,
		Quantity:       qty,
		LineTotalCents: lineTotal,
	}).Error)
}

func TestDailySummary(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, db, node := setupReportService(t, day.Add(12*time.Hour))

	seedSale(t, db, node, "Apple", 1000, 2, day.Add(9*time.Hour))
	seedSale(t, db, node, "Bread", 500, 3, day.Add(15*time.Hour))
	// The day boundary is exclusive at midnight.
	seedSale(t, db, node, "Milk", 300, 1, day.Add(24*time.Hour))

	summary, err := svc.DailySummary(context.Background(), "2024-06-01")
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", summary.Date)
	assert.Equal(t, int64(2), summary.BillCount)
	assert.Equal(t, int64(3500), summary.RevenueCents)
	assert.Equal(t, "35.00", summary.Revenue)

	require.Len(t, summary.Products, 2)
	// Ordered by revenue, highest first.
	assert.Equal(t, "Apple", summary.Products[0].ProductName)
	assert.Equal(t, int64(2000), summary.Products[0].RevenueCents)
	assert.Equal(t, "Bread", summary.Products[1].ProductName)
	assert.Equal(t, int64(3), summary.Products[1].QuantitySold)
}

func TestDailySummaryDefaultsToToday(t *testing.T) {
	day := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	svc, db, node := setupReportService(t, day.Add(18*time.Hour))

	seedSale(t, db, node, "Apple", 1000, 1, day.Add(10*time.Hour))

	summary, err := svc.DailySummary(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "2024-06-02", summary.Date)
	assert.Equal(t, int64(1), summary.BillCount)
	assert.Equal(t, int64(1000), summary.RevenueCents)
}

func TestDailySummaryEmptyDay(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	svc, _, _ := setupReportService(t, day)

	summary, err := svc.DailySummary(context.Background(), "2024-06-03")
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.BillCount)
	assert.Equal(t, int64(0), summary.RevenueCents)
	assert.Empty(t, summary.Products)
}

func TestDailySummaryInvalidDate(t *testing.T) {
	svc, _, _ := setupReportService(t, time.Now().UTC())

	_, err := svc.DailySummary(context.Background(), "not-a-date")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}
