package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallyworks/tally/internal/alert"
	billingdomain "github.com/tallyworks/tally/internal/billing/domain"
	billingrepository "github.com/tallyworks/tally/internal/billing/repository"
	"github.com/tallyworks/tally/internal/clock"
	"github.com/tallyworks/tally/internal/config"
	productdomain "github.com/tallyworks/tally/internal/product/domain"
	productrepository "github.com/tallyworks/tally/internal/product/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billingFixture struct {
	svc       billingdomain.Service
	db        *gorm.DB
	node      *snowflake.Node
	collector *alert.CollectorSink
	clock     *clock.FakeClock
}

func setupBillingService(t *testing.T) *billingFixture {
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

	collector := alert.NewCollectorSink()
	fc := clock.NewFakeClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     billingrepository.Provide(),
		Products: productrepository.Provide(),
		Clock:    fc,
		Notifier: alert.NewNotifier(collector),
		Alerting: config.NewStaticAlertingConfigHolder(config.AlertingConfig{
			Enabled:          true,
			DefaultThreshold: 5,
		}),
	})

	return &billingFixture{
		svc:       svc,
		db:        db,
		node:      node,
		collector: collector,
		clock:     fc,
	}
}

func (f *billingFixture) seedProduct(t *testing.T, name string, priceCents int64, stock, threshold int) string {
	t.Helper()

	id := f.node.Generate().Int64()
	now := time.Now().UTC()
	err := f.db.Create(&productdomain.Product{
		ID:             id,
		Name:           name,
		PriceCents:     priceCents,
		Stock:          stock,
		AlertThreshold: threshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error
	require.NoError(t, err)
	return snowflake.ID(id).String()
}

func (f *billingFixture) productStock(t *testing.T, id string) int {
	t.Helper()

	parsed, err := snowflake.ParseString(id)
	require.NoError(t, err)

	var p productdomain.Product
	require.NoError(t, f.db.First(&p, "id = ?", parsed.Int64()).Error)
	return p.Stock
}

func (f *billingFixture) count(t *testing.T, table string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Table(table).Count(&n).Error)
	return n
}

func TestCreateBill(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)
	bread := f.seedProduct(t, "Bread", 500, 3, 0)

	resp, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines: []billingdomain.CartLine{
			{ProductID: apple, Quantity: 2},
			{ProductID: bread, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "Joe", resp.CustomerName)
	assert.Equal(t, int64(2500), resp.TotalCents)
	assert.Equal(t, "25.00", resp.Total)
	assert.True(t, resp.BillDate.Equal(f.clock.Now()))
	require.Len(t, resp.Items, 2)

	assert.Equal(t, 3, f.productStock(t, apple))
	assert.Equal(t, 2, f.productStock(t, bread))

	sum := int64(0)
	for _, item := range resp.Items {
		sum += item.LineTotalCents
	}
	assert.Equal(t, resp.TotalCents, sum)
}

func TestCreateBillEmptyCart(t *testing.T) {
	f := setupBillingService(t)

	resp, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
	})
	require.NoError(t, err)
	assert.Nil(t, resp)

	assert.Equal(t, int64(0), f.count(t, "bills"))
	assert.Equal(t, int64(0), f.count(t, "bill_items"))
}

func TestCreateBillInsufficientStockRollsBack(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)
	bread := f.seedProduct(t, "Bread", 500, 3, 0)

	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines: []billingdomain.CartLine{
			{ProductID: apple, Quantity: 2},
			{ProductID: bread, Quantity: 5},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, billingdomain.ErrInsufficientStock)

	var stockErr *billingdomain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Bread", stockErr.ProductName)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	// The first line's decrement must not survive the failure.
	assert.Equal(t, 5, f.productStock(t, apple))
	assert.Equal(t, 3, f.productStock(t, bread))
	assert.Equal(t, int64(0), f.count(t, "bills"))
	assert.Equal(t, int64(0), f.count(t, "bill_items"))
}

func TestCreateBillSameProductTwice(t *testing.T) {
	f := setupBillingService(t)

	pen := f.seedProduct(t, "Pen", 200, 4, 0)

	// The second line must see the stock already consumed by the first.
	_, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines: []billingdomain.CartLine{
			{ProductID: pen, Quantity: 3},
			{ProductID: pen, Quantity: 2},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, billingdomain.ErrInsufficientStock)

	assert.Equal(t, 4, f.productStock(t, pen))
	assert.Equal(t, int64(0), f.count(t, "bills"))
}

func TestCreateBillProductNotFound(t *testing.T) {
	f := setupBillingService(t)

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)
	missing := f.node.Generate().String()

	_, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines: []billingdomain.CartLine{
			{ProductID: apple, Quantity: 2},
			{ProductID: missing, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, billingdomain.ErrProductNotFound)

	assert.Equal(t, 5, f.productStock(t, apple))
	assert.Equal(t, int64(0), f.count(t, "bills"))
	assert.Equal(t, int64(0), f.count(t, "bill_items"))
}

func TestCreateBillInvalidQuantity(t *testing.T) {
	f := setupBillingService(t)

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)

	_, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: apple, Quantity: 0}},
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidQuantity)
	assert.Equal(t, int64(0), f.count(t, "bills"))
}

func TestEditBillReplacesLines(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)
	bread := f.seedProduct(t, "Bread", 500, 3, 0)

	created, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines: []billingdomain.CartLine{
			{ProductID: apple, Quantity: 2},
			{ProductID: bread, Quantity: 1},
		},
	})
	require.NoError(t, err)

	edited, err := f.svc.Edit(ctx, created.ID, []billingdomain.CartLine{
		{ProductID: apple, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, edited.ID)
	assert.Equal(t, int64(1000), edited.TotalCents)
	require.Len(t, edited.Items, 1)
	assert.Equal(t, "Apple", edited.Items[0].ProductName)

	// Old quantities restored, new ones consumed.
	assert.Equal(t, 4, f.productStock(t, apple))
	assert.Equal(t, 3, f.productStock(t, bread))
	assert.Equal(t, int64(1), f.count(t, "bill_items"))
}

func TestEditBillEmptyCartAborts(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)

	created, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: apple, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.svc.Edit(ctx, created.ID, nil)
	assert.ErrorIs(t, err, billingdomain.ErrEmptyEdit)

	// The abort must also roll back the interim stock restoration.
	assert.Equal(t, 3, f.productStock(t, apple))

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.TotalCents)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestEditBillInsufficientStockRollsBack(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)

	created, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: apple, Quantity: 2}},
	})
	require.NoError(t, err)

	// Restoring the original 2 leaves 5 on hand, still short of 10.
	_, err = f.svc.Edit(ctx, created.ID, []billingdomain.CartLine{
		{ProductID: apple, Quantity: 10},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, billingdomain.ErrInsufficientStock)

	assert.Equal(t, 3, f.productStock(t, apple))

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.TotalCents)
	require.Len(t, got.Items, 1)
}

func TestEditBillNotFound(t *testing.T) {
	f := setupBillingService(t)

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)

	_, err := f.svc.Edit(context.Background(), f.node.Generate().String(), []billingdomain.CartLine{
		{ProductID: apple, Quantity: 1},
	})
	assert.ErrorIs(t, err, billingdomain.ErrBillNotFound)
	assert.Equal(t, 5, f.productStock(t, apple))
}

func TestLowStockAlertAfterCommit(t *testing.T) {
	f := setupBillingService(t)

	milk := f.seedProduct(t, "Milk", 300, 6, 5)

	_, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: milk, Quantity: 2}},
	})
	require.NoError(t, err)

	alerts := f.collector.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Milk", alerts[0].ProductName)
	assert.Equal(t, 4, alerts[0].NewStock)
	assert.Equal(t, 5, alerts[0].Threshold)
}

func TestNoAlertOnFailedBill(t *testing.T) {
	f := setupBillingService(t)

	milk := f.seedProduct(t, "Milk", 300, 6, 5)
	eggs := f.seedProduct(t, "Eggs", 400, 1, 0)

	_, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines: []billingdomain.CartLine{
			{ProductID: milk, Quantity: 2},
			{ProductID: eggs, Quantity: 5},
		},
	})
	require.Error(t, err)

	// Milk crossed its threshold inside the transaction, but the rollback
	// means nothing may be announced.
	assert.Empty(t, f.collector.Alerts())
	assert.Equal(t, 6, f.productStock(t, milk))
}

func TestNoAlertWhenDisabled(t *testing.T) {
	f := setupBillingService(t)

	// Rebuild the service with alerting switched off.
	f.svc = New(Params{
		DB:       f.db,
		Log:      zap.NewNop(),
		GenID:    f.node,
		Repo:     billingrepository.Provide(),
		Products: productrepository.Provide(),
		Clock:    f.clock,
		Notifier: alert.NewNotifier(f.collector),
		Alerting: config.NewStaticAlertingConfigHolder(config.AlertingConfig{
			Enabled:          false,
			DefaultThreshold: 5,
		}),
	})

	milk := f.seedProduct(t, "Milk", 300, 6, 5)

	_, err := f.svc.Create(context.Background(), billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: milk, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Empty(t, f.collector.Alerts())
}

func TestDeleteBillKeepsStock(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 5, 0)

	created, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: apple, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	// Deleting a bill purges its lines without handing stock back.
	assert.Equal(t, 3, f.productStock(t, apple))
	assert.Equal(t, int64(0), f.count(t, "bills"))
	assert.Equal(t, int64(0), f.count(t, "bill_items"))

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, billingdomain.ErrBillNotFound)
}

func TestListBills(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	apple := f.seedProduct(t, "Apple", 1000, 10, 0)

	first, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Joe",
		Lines:        []billingdomain.CartLine{{ProductID: apple, Quantity: 1}},
	})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	second, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		CustomerName: "Ann",
		Lines:        []billingdomain.CartLine{{ProductID: apple, Quantity: 3}},
	})
	require.NoError(t, err)

	bills, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 2)

	ids := []string{bills[0].ID, bills[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestGetBillInvalidID(t *testing.T) {
	f := setupBillingService(t)

	_, err := f.svc.Get(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidID)
}
