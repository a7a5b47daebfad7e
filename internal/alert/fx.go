package alert

import (
	"strings"

	"github.com/tallyworks/tally/internal/alert/domain"
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/observability/metrics"
	"github.com/tallyworks/tally/internal/providers/slack"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("alert",
	fx.Provide(provideSlackProvider),
	fx.Provide(provideNotifier),
)

func provideSlackProvider(holder *config.AlertingConfigHolder) slack.Provider {
	cfg := holder.Get()
	if url := strings.TrimSpace(cfg.SlackWebhookURL); url != "" {
		return slack.NewWebhookProvider(url)
	}
	return &slack.NoOpProvider{}
}

func provideNotifier(
	log *zap.Logger,
	m *metrics.Metrics,
	holder *config.AlertingConfigHolder,
	provider slack.Provider,
) *Notifier {
	sinks := []domain.Sink{NewLogSink(log, m)}
	if _, ok := provider.(*slack.NoOpProvider); !ok {
		sinks = append(sinks, NewSlackSink(provider, holder, log))
	}
	return NewNotifier(sinks...)
}
