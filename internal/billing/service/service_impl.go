package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/tallyworks/tally/internal/alert"
	alertdomain "github.com/tallyworks/tally/internal/alert/domain"
	"github.com/tallyworks/tally/internal/billing/domain"
	"github.com/tallyworks/tally/internal/clock"
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/observability/metrics"
	productdomain "github.com/tallyworks/tally/internal/product/domain"
	"github.com/tallyworks/tally/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Products productdomain.Repository
	Clock    clock.Clock
	Notifier *alert.Notifier
	Alerting *config.AlertingConfigHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	products productdomain.Repository
	clock    clock.Clock
	notifier *alert.Notifier
	alerting *config.AlertingConfigHolder
	metrics  *metrics.Metrics
	genID    *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		repo:     p.Repo,
		products: p.Products,
		clock:    p.Clock,
		notifier: p.Notifier,
		alerting: p.Alerting,
		metrics:  p.Metrics,
		genID:    p.GenID,
	}
}

// cartLine is a parsed, validated cart entry.
type cartLine struct {
	productID int64
	quantity  int
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if len(req.Lines) == 0 {
		// An abandoned cart is not an error; nothing touches the store.
		return nil, nil
	}

	lines, err := parseCart(req.Lines)
	if err != nil {
		return nil, err
	}

	var (
		bill    *domain.Bill
		pending []alertdomain.LowStockAlert
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b := &domain.Bill{
			ID:           s.genID.Generate().Int64(),
			CustomerName: strings.TrimSpace(req.CustomerName),
			BillDate:     s.clock.Now(),
		}
		if err := s.repo.InsertBill(ctx, tx, b); err != nil {
			return err
		}

		total, alerts, err := s.applyCart(ctx, tx, b.ID, lines)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateBillTotal(ctx, tx, b.ID, total); err != nil {
			return err
		}
		b.TotalCents = total

		bill = b
		pending = alerts
		return nil
	})
	if err != nil {
		s.metrics.RecordBillFailed(failureReason(err))
		return nil, err
	}

	s.metrics.RecordBillCreated()
	s.flushAlerts(ctx, pending)
	s.log.Info("bill created",
		zap.Int64("bill_id", bill.ID),
		zap.String("customer", bill.CustomerName),
		zap.Int64("total_cents", bill.TotalCents),
		zap.Int("lines", len(lines)),
	)

	return s.loadResponse(ctx, bill.ID)
}

func (s *Service) Edit(ctx context.Context, id string, newLines []domain.CartLine) (*domain.Response, error) {
	billID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	// Validate the new cart before opening the transaction; an empty cart is
	// deliberately left through so the abort happens transactionally below.
	var lines []cartLine
	if len(newLines) > 0 {
		lines, err = parseCart(newLines)
		if err != nil {
			return nil, err
		}
	}

	var pending []alertdomain.LowStockAlert
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.repo.FindBillByID(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrBillNotFound
		}

		// Reverse the original sale: hand every sold quantity back.
		existing, err := s.repo.FindItemsByBillID(ctx, tx, billID)
		if err != nil {
			return err
		}
		for _, item := range existing {
			if _, err := s.products.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.DeleteItems(ctx, tx, billID); err != nil {
			return err
		}

		if len(lines) == 0 {
			// No destructive empty edit: the whole transaction, including
			// the stock restoration above, rolls back.
			return domain.ErrEmptyEdit
		}

		total, alerts, err := s.applyCart(ctx, tx, billID, lines)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateBillTotal(ctx, tx, billID, total); err != nil {
			return err
		}

		pending = alerts
		return nil
	})
	if err != nil {
		s.metrics.RecordBillFailed(failureReason(err))
		return nil, err
	}

	s.metrics.RecordBillEdited()
	s.flushAlerts(ctx, pending)
	s.log.Info("bill edited",
		zap.Int64("bill_id", billID),
		zap.Int("lines", len(lines)),
	)

	return s.loadResponse(ctx, billID)
}

// applyCart runs the shared per-line logic of create and edit: snapshot the
// product, validate stock, consume it, and persist the line. Stock reads go
// through tx, so a product repeated in one cart sees the cumulative
// decrement of its earlier lines. Returned alerts are pending until commit.
func (s *Service) applyCart(ctx context.Context, tx *gorm.DB, billID int64, lines []cartLine) (int64, []alertdomain.LowStockAlert, error) {
	var (
		total  int64
		alerts []alertdomain.LowStockAlert
	)
	alertsEnabled := s.alerting.Get().Enabled

	for _, line := range lines {
		p, err := s.products.FindByIDForUpdate(ctx, tx, line.productID)
		if err != nil {
			return 0, nil, err
		}
		if p == nil {
			return 0, nil, domain.ErrProductNotFound
		}
		if p.Stock < line.quantity {
			return 0, nil, &domain.InsufficientStockError{
				ProductName: p.Name,
				Requested:   line.quantity,
				Available:   p.Stock,
			}
		}

		lineTotal := p.PriceCents * int64(line.quantity)
		total += lineTotal

		newStock, err := s.products.AdjustStock(ctx, tx, line.productID, -line.quantity)
		if err != nil {
			if errors.Is(err, productdomain.ErrInsufficientStock) {
				return 0, nil, &domain.InsufficientStockError{
					ProductName: p.Name,
					Requested:   line.quantity,
					Available:   p.Stock,
				}
			}
			return 0, nil, err
		}

		item := &domain.BillItem{
			ID:             s.genID.Generate().Int64(),
			BillID:         billID,
			ProductID:      line.productID,
			Quantity:       line.quantity,
			LineTotalCents: lineTotal,
		}
		if err := s.repo.InsertItem(ctx, tx, item); err != nil {
			return 0, nil, err
		}

		if alertsEnabled && newStock <= p.AlertThreshold {
			alerts = append(alerts, alertdomain.LowStockAlert{
				ProductID:   p.ID,
				ProductName: p.Name,
				NewStock:    newStock,
				Threshold:   p.AlertThreshold,
				OccurredAt:  s.clock.Now(),
			})
		}
	}

	return total, alerts, nil
}

// flushAlerts delivers alerts buffered during a transaction. Called only
// after a successful commit so uncommitted stock values never leak out.
func (s *Service) flushAlerts(ctx context.Context, pending []alertdomain.LowStockAlert) {
	if s.notifier == nil {
		return
	}
	for _, a := range pending {
		s.notifier.Notify(ctx, a)
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	billID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.loadResponse(ctx, billID)
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	bills, err := s.repo.FindAllBills(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(bills))
	for _, b := range bills {
		resp = append(resp, toHeaderResponse(&b))
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	billID, err := parseID(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.repo.FindBillByID(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrBillNotFound
		}
		return s.repo.DeleteBill(ctx, tx, billID)
	})
	if err != nil {
		return err
	}

	s.log.Info("bill deleted", zap.Int64("bill_id", billID))
	return nil
}

func (s *Service) loadResponse(ctx context.Context, billID int64) (*domain.Response, error) {
	b, err := s.repo.FindBillByID(ctx, s.db, billID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBillNotFound
	}

	details, err := s.repo.FindItemDetails(ctx, s.db, billID)
	if err != nil {
		return nil, err
	}

	resp := toHeaderResponse(b)
	resp.Items = make([]domain.LineResponse, 0, len(details))
	for _, d := range details {
		resp.Items = append(resp.Items, domain.LineResponse{
			ID:             snowflake.ID(d.ID).String(),
			ProductID:      snowflake.ID(d.ProductID).String(),
			ProductName:    d.ProductName,
			Quantity:       d.Quantity,
			LineTotalCents: d.LineTotalCents,
			LineTotal:      money.FormatCents(d.LineTotalCents),
		})
	}
	return &resp, nil
}

func toHeaderResponse(b *domain.Bill) domain.Response {
	return domain.Response{
		ID:           snowflake.ID(b.ID).String(),
		CustomerName: b.CustomerName,
		BillDate:     b.BillDate,
		TotalCents:   b.TotalCents,
		Total:        money.FormatCents(b.TotalCents),
	}
}

func parseCart(raw []domain.CartLine) ([]cartLine, error) {
	lines := make([]cartLine, 0, len(raw))
	for _, entry := range raw {
		productID, err := parseID(entry.ProductID)
		if err != nil {
			return nil, domain.ErrProductNotFound
		}
		if entry.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		lines = append(lines, cartLine{productID: productID, quantity: entry.Quantity})
	}
	return lines, nil
}

func parseID(raw string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return parsed.Int64(), nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrEmptyEdit):
		return "empty_edit"
	case errors.Is(err, domain.ErrBillNotFound):
		return "bill_not_found"
	default:
		return "store_error"
	}
}
