package repository

import (
	"context"
	"time"

	"github.com/tallyworks/tally/internal/product/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, name, price_cents, stock, alert_threshold, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.PriceCents,
		product.Stock,
		product.AlertThreshold,
		product.Metadata,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price_cents, stock, alert_threshold, metadata, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

// rowLock adds FOR UPDATE on engines that support it. SQLite serializes
// writers at the file level, so the clause is omitted there.
func rowLock(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	default:
		return db
	}
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := rowLock(db.WithContext(ctx)).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price_cents, stock, alert_threshold, metadata, created_at, updated_at
		 FROM products ORDER BY id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET price_cents = ?, alert_threshold = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		product.PriceCents,
		product.AlertThreshold,
		product.Metadata,
		product.UpdatedAt,
		product.ID,
	).Error
}

// AdjustStock is the single write path for stock. The locked read and the
// write happen on the same handle, so inside a transaction later lines see
// the cumulative effect of earlier ones.
func (r *repo) AdjustStock(ctx context.Context, db *gorm.DB, id int64, delta int) (int, error) {
	p, err := r.FindByIDForUpdate(ctx, db, id)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, domain.ErrNotFound
	}

	newStock := p.Stock + delta
	if newStock < 0 {
		return 0, domain.ErrInsufficientStock
	}

	err = db.WithContext(ctx).Exec(
		`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		newStock,
		time.Now().UTC(),
		id,
	).Error
	if err != nil {
		return 0, err
	}
	return newStock, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id).Error
}
