package billing

import (
	"github.com/tallyworks/tally/internal/billing/repository"
	"github.com/tallyworks/tally/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
