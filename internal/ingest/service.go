// Package ingest ties the pipeline together: one normalized path shared by
// the HTTP webhook handlers and the broker consumer.
package ingest

import (
	"time"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/metrics"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/query"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/store"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/webhook"
)

// Notifier receives alerts that warrant out-of-band notification. Nil-safe
// implementations allow running without a notifier configured.
type Notifier interface {
	QueueCritical(alert models.Alert)
}

// Result statuses returned to webhook senders.
const (
	StatusNew     = store.ResultNew
	StatusUpdated = store.ResultUpdated
	StatusControl = "control"
)

// Result is the ingestion outcome for one payload.
type Result struct {
	Status string       `json:"status"`
	Alert  models.Alert `json:"-"`
}

// Service is the ingestion pipeline: normalize, record raw, persist the
// debug line, upsert, count, notify. Storage or logging failures never
// abort ingestion; the sender still gets its acknowledgment.
type Service struct {
	normalizer *webhook.Normalizer
	store      *store.Store
	debug      *store.DebugLog
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *logging.Logger
	now        func() time.Time
}

func New(n *webhook.Normalizer, s *store.Store, d *store.DebugLog, notifier Notifier, m *metrics.Metrics, logger *logging.Logger) *Service {
	return &Service{
		normalizer: n,
		store:      s,
		debug:      d,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// IngestInfrastructure processes one infrastructure-shaped payload.
func (s *Service) IngestInfrastructure(payload map[string]any) Result {
	s.metrics.IncWebhook(models.SourceInfrastructure)
	res := s.normalizer.Normalize(payload)
	if res.Control {
		s.metrics.IncControl()
		return Result{Status: StatusControl}
	}
	return s.finish(res.Alert, payload)
}

// IngestLog processes one log-pipeline payload.
func (s *Service) IngestLog(payload map[string]any) Result {
	s.metrics.IncWebhook(models.SourceLogs)
	res := s.normalizer.NormalizeLog(payload)
	return s.finish(res.Alert, payload)
}

func (s *Service) finish(alert models.Alert, payload map[string]any) Result {
	raw := models.RawWebhookRecord{
		Timestamp:  s.now(),
		AlertType:  alert.AlertType,
		Source:     alert.Source,
		RawPayload: payload,
	}
	s.store.RecordRaw(raw)
	s.debug.Append(s.debugDomain(alert), raw)

	outcome := s.store.Upsert(alert)
	switch outcome {
	case store.ResultNew:
		s.metrics.IncNew()
	case store.ResultUpdated:
		s.metrics.IncUpdated()
	}
	s.logger.Infof("Alert %s (%s): %s", alert.ID, alert.Severity, outcome)

	if s.notifier != nil &&
		query.NormalizeSeverity(alert.Source, alert.Severity) == query.SeverityCritical {
		s.notifier.QueueCritical(alert)
	}
	return Result{Status: outcome, Alert: alert}
}

func (s *Service) debugDomain(alert models.Alert) string {
	if alert.Source == models.SourceLogs {
		return models.SourceLogs
	}
	if alert.Domain != "" {
		return alert.Domain
	}
	return models.DomainServer
}
