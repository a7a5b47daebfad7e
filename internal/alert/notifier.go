package alert

import (
	"context"
	"fmt"
	"sync"

	"github.com/tallyworks/tally/internal/alert/domain"
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/observability/metrics"
	"github.com/tallyworks/tally/internal/providers/slack"
	"go.uber.org/zap"
)

// Notifier fans alerts out to every configured sink. The billing engine
// buffers alerts during a transaction and calls Notify only after commit.
type Notifier struct {
	sinks []domain.Sink
}

func NewNotifier(sinks ...domain.Sink) *Notifier {
	return &Notifier{sinks: sinks}
}

func (n *Notifier) Notify(ctx context.Context, alert domain.LowStockAlert) {
	for _, sink := range n.sinks {
		sink.Notify(ctx, alert)
	}
}

// LogSink writes alerts to the structured log.
type LogSink struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewLogSink(log *zap.Logger, m *metrics.Metrics) *LogSink {
	return &LogSink{log: log.Named("alert.sink"), metrics: m}
}

func (s *LogSink) Notify(ctx context.Context, alert domain.LowStockAlert) {
	_ = ctx
	s.metrics.RecordLowStockAlert(alert.ProductName)
	s.log.Warn("low stock",
		zap.Int64("product_id", alert.ProductID),
		zap.String("product", alert.ProductName),
		zap.Int("stock", alert.NewStock),
		zap.Int("threshold", alert.Threshold),
	)
}

// SlackSink forwards alerts to a Slack channel. Failures are logged and
// dropped.
type SlackSink struct {
	provider slack.Provider
	holder   *config.AlertingConfigHolder
	log      *zap.Logger
}

func NewSlackSink(provider slack.Provider, holder *config.AlertingConfigHolder, log *zap.Logger) *SlackSink {
	return &SlackSink{
		provider: provider,
		holder:   holder,
		log:      log.Named("alert.slack"),
	}
}

func (s *SlackSink) Notify(ctx context.Context, alert domain.LowStockAlert) {
	cfg := s.holder.Get()
	message := fmt.Sprintf("Low stock for %s: %d left (alert at %d)",
		alert.ProductName, alert.NewStock, alert.Threshold)
	if err := s.provider.PostMessage(ctx, cfg.SlackChannel, message); err != nil {
		s.log.Warn("slack delivery failed", zap.Error(err))
	}
}

// CollectorSink records alerts in memory; used by tests.
type CollectorSink struct {
	mu     sync.Mutex
	alerts []domain.LowStockAlert
}

func NewCollectorSink() *CollectorSink {
	return &CollectorSink{}
}

func (s *CollectorSink) Notify(ctx context.Context, alert domain.LowStockAlert) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
}

func (s *CollectorSink) Alerts() []domain.LowStockAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LowStockAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}
