package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/product/domain"
	pkgdb "github.com/tallyworks/tally/pkg/db"
	"github.com/tallyworks/tally/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Alerting *config.AlertingConfigHolder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	alerting *config.AlertingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		alerting: p.Alerting,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.PriceCents < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	threshold := s.alerting.Get().DefaultThreshold
	if req.AlertThreshold != nil {
		if *req.AlertThreshold < 0 {
			return nil, domain.ErrInvalidThreshold
		}
		threshold = *req.AlertThreshold
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:             s.genID.Generate().Int64(),
		Name:           name,
		PriceCents:     req.PriceCents,
		Stock:          req.Stock,
		AlertThreshold: threshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, p); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrNameTaken
		}
		return nil, err
	}

	s.log.Info("product created",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name),
	)

	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	productID, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, domain.ErrInvalidPrice
		}
		item.PriceCents = *req.PriceCents
	}
	if req.AlertThreshold != nil {
		if *req.AlertThreshold < 0 {
			return nil, domain.ErrInvalidThreshold
		}
		item.AlertThreshold = *req.AlertThreshold
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

// Restock adds quantity to stock through the same adjustment primitive the
// billing engine uses.
func (s *Service) Restock(ctx context.Context, id string, quantity int) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.repo.AdjustStock(ctx, tx, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	s.log.Info("product restocked",
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("stock", item.Stock),
	)

	resp := s.toResponse(item)
	return &resp, nil
}

// Delete removes a product unless it is referenced by past bill records; the
// store's foreign key constraint surfaces that as ErrProductInUse.
func (s *Service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, productID); err != nil {
		if pkgdb.IsForeignKeyViolation(err) {
			return domain.ErrProductInUse
		}
		return err
	}

	s.log.Info("product deleted",
		zap.Int64("product_id", productID),
		zap.String("name", item.Name),
	)
	return nil
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:             snowflake.ID(p.ID).String(),
		Name:           p.Name,
		PriceCents:     p.PriceCents,
		Price:          money.FormatCents(p.PriceCents),
		Stock:          p.Stock,
		AlertThreshold: p.AlertThreshold,
		LowStock:       p.LowStock(),
		Metadata:       p.Metadata,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func parseID(raw string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return parsed.Int64(), nil
}
