package report

import (
	"github.com/tallyworks/tally/internal/report/repository"
	"github.com/tallyworks/tally/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
