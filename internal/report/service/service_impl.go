package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tallyworks/tally/internal/clock"
	"github.com/tallyworks/tally/internal/report/domain"
	"github.com/tallyworks/tally/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("report.service"),
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) DailySummary(ctx context.Context, date string) (*domain.Summary, error) {
	day, err := s.resolveDay(date)
	if err != nil {
		return nil, err
	}
	from := day
	to := day.Add(24 * time.Hour)

	totals, err := s.repo.SummarizeWindow(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ProductSalesForWindow(ctx, s.db, from, to)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		Date:         day.Format(dateLayout),
		BillCount:    totals.BillCount,
		RevenueCents: totals.RevenueCents,
		Revenue:      money.FormatCents(totals.RevenueCents),
		Products:     make([]domain.ProductSale, 0, len(rows)),
	}
	for _, row := range rows {
		summary.Products = append(summary.Products, domain.ProductSale{
			ProductID:    snowflake.ID(row.ProductID).String(),
			ProductName:  row.ProductName,
			QuantitySold: row.QuantitySold,
			RevenueCents: row.RevenueCents,
			Revenue:      money.FormatCents(row.RevenueCents),
		})
	}
	return summary, nil
}

func (s *Service) resolveDay(date string) (time.Time, error) {
	if date == "" {
		now := s.clock.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return day, nil
}
