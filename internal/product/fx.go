package product

import (
	"github.com/tallyworks/tally/internal/product/repository"
	"github.com/tallyworks/tally/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
