package migration

import (
	billingdomain "github.com/tallyworks/tally/internal/billing/domain"
	productdomain "github.com/tallyworks/tally/internal/product/domain"
	"github.com/tallyworks/tally/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		// golang-migrate drives Postgres; other dialects fall back to
		// the model-derived schema.
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			err := conn.AutoMigrate(
				&productdomain.Product{},
				&billingdomain.Bill{},
				&billingdomain.BillItem{},
			)
			if err != nil {
				return err
			}
		}

		return seed.EnsureCatalog(conn)
	}),
)
