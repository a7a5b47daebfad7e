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
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/product/domain"
	"github.com/tallyworks/tally/internal/product/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupProductService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	// Foreign keys are off by default in sqlite; the delete tests need them.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.Product{},
		&billingdomain.Bill{},
		&billingdomain.BillItem{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Alerting: config.NewStaticAlertingConfigHolder(config.AlertingConfig{
			Enabled:          true,
			DefaultThreshold: 5,
		}),
	})

	return svc, db, node
}

func TestCreateProduct(t *testing.T) {
	svc, _, _ := setupProductService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, domain.CreateRequest{
		Name:       "Apple",
		PriceCents: 1000,
		Stock:      5,
	})
	require.NoError(t, err)

	assert.Equal(t, "Apple", resp.Name)
	assert.Equal(t, int64(1000), resp.PriceCents)
	assert.Equal(t, "10.00", resp.Price)
	assert.Equal(t, 5, resp.Stock)
	assert.Equal(t, 5, resp.AlertThreshold)
	assert.True(t, resp.LowStock)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := setupProductService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "  ", PriceCents: 100, Stock: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: -1, Stock: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 100, Stock: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	badThreshold := -1
	_, err = svc.Create(ctx, domain.CreateRequest{
		Name:           "Apple",
		PriceCents:     100,
		Stock:          1,
		AlertThreshold: &badThreshold,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
}

func TestCreateProductDuplicateName(t *testing.T) {
	svc, _, _ := setupProductService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 900, Stock: 2})
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestUpdateProduct(t *testing.T) {
	svc, _, _ := setupProductService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	newPrice := int64(1200)
	newThreshold := 2
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:             created.ID,
		PriceCents:     &newPrice,
		AlertThreshold: &newThreshold,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1200), updated.PriceCents)
	assert.Equal(t, 2, updated.AlertThreshold)
	assert.False(t, updated.LowStock)
	assert.Equal(t, 5, updated.Stock)
}

func TestRestockProduct(t *testing.T) {
	svc, _, _ := setupProductService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	resp, err := svc.Restock(ctx, created.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Stock)

	_, err = svc.Restock(ctx, created.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Restock(ctx, created.ID, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestDeleteProduct(t *testing.T) {
	svc, _, node := setupProductService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(ctx, node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProductInUse(t *testing.T) {
	svc, db, node := setupProductService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	productID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	billID := node.Generate().Int64()
	require.NoError(t, db.Create(&billingdomain.Bill{
		ID:           billID,
		CustomerName: "Joe",
		BillDate:     now,
		TotalCents:   2000,
	}).Error)
	require.NoError(t, db.Create(&billingdomain.BillItem{
		ID:             node.Generate().Int64(),
		BillID:         billID,
		ProductID:      productID.Int64(),
		Quantity:       2,
		LineTotalCents: 2000,
	}).Error)

	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductInUse)

	// The product must survive the rejected delete.
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apple", got.Name)
}

func TestAdjustStockPrimitive(t *testing.T) {
	svc, db, _ := setupProductService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Apple", PriceCents: 1000, Stock: 5})
	require.NoError(t, err)

	productID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	repo := repository.Provide()

	err = db.Transaction(func(tx *gorm.DB) error {
		newStock, err := repo.AdjustStock(ctx, tx, productID.Int64(), -3)
		require.NoError(t, err)
		assert.Equal(t, 2, newStock)
		return nil
	})
	require.NoError(t, err)

	// Draining past zero is rejected inside the transaction.
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.AdjustStock(ctx, tx, productID.Int64(), -3)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}
