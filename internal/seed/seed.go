package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	productdomain "github.com/tallyworks/tally/internal/product/domain"
	"gorm.io/gorm"
)

const (
	placeholderName       = "Nothing"
	placeholderPriceCents = 999
	placeholderStock      = 1
)

// EnsureCatalog seeds a placeholder product so a fresh install has
// something to ring up. Existing catalogs are never touched.
func EnsureCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&productdomain.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		product := productdomain.Product{
			ID:             node.Generate().Int64(),
			Name:           placeholderName,
			PriceCents:     placeholderPriceCents,
			Stock:          placeholderStock,
			AlertThreshold: 5,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.WithContext(ctx).Create(&product).Error
	})
}
