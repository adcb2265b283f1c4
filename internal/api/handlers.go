package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/db"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/enrich"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/heartbeat"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/ingest"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/metrics"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/query"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/store"
)

// UserStore is the slice of the persistence layer the login handler needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (db.User, error)
}

type Handler struct {
	ingest   *ingest.Service
	store    *store.Store
	hb       *heartbeat.Client
	enricher *enrich.Service
	users    UserStore
	sessions *Sessions
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

func NewHandler(ing *ingest.Service, st *store.Store, hb *heartbeat.Client, en *enrich.Service, users UserStore, sessions *Sessions, m *metrics.Metrics, logger *logging.Logger) *Handler {
	return &Handler{
		ingest:   ing,
		store:    st,
		hb:       hb,
		enricher: en,
		users:    users,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// ReceiveInfrastructureWebhook accepts any parseable JSON object. The
// contract is "accepted for processing", not "fully understood": a 2xx
// acknowledgment goes back regardless of how much could be normalized.
func (h *Handler) ReceiveInfrastructureWebhook(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Errorf("Unparseable webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	res := h.ingest.IngestInfrastructure(payload)
	c.JSON(http.StatusOK, gin.H{"status": res.Status})
}

// ReceiveLogWebhook accepts the log-pipeline alert shape.
func (h *Handler) ReceiveLogWebhook(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Errorf("Unparseable log webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	res := h.ingest.IngestLog(payload)
	c.JSON(http.StatusOK, gin.H{"status": res.Status})
}

// ListAlerts returns retained alerts, optionally narrowed by severity, a
// resource substring, and a limit.
func (h *Handler) ListAlerts(c *gin.Context) {
	opts := store.ListOptions{
		Severity: c.Query("severity"),
		Resource: c.Query("resource"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		opts.Limit = limit
	}

	alerts := h.store.List(opts)
	alerts = h.enricher.EnrichBatch(c.Request.Context(), alerts)
	c.JSON(http.StatusOK, alerts)
}

// AlertOptions lists the distinct filter values from the live set.
func (h *Handler) AlertOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.FilterOptions())
}

// MarkRead flags an alert read. Best effort by contract: the flag does not
// survive the daily wipe.
func (h *Handler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if !h.store.MarkRead(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// Acknowledge flags an alert acknowledged. Best effort.
func (h *Handler) Acknowledge(c *gin.Context) {
	id := c.Param("id")
	if !h.store.Acknowledge(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// QueryAlerts runs the classifier/filter over the union of the retained
// streams plus a fresh heartbeat fetch.
func (h *Handler) QueryAlerts(c *gin.Context) {
	var filter query.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter body"})
		return
	}

	all := h.store.List(store.ListOptions{})
	var infra, logs []models.Alert
	for _, a := range all {
		switch a.Source {
		case models.SourceLogs:
			logs = append(logs, a)
		default:
			infra = append(infra, a)
		}
	}

	var hbRecords []heartbeat.Record
	if wantsHeartbeat(filter.SourceIn) && h.hb.Enabled() {
		systems, err := h.hb.Fetch(c.Request.Context())
		if err != nil {
			// Upstream outage surfaces as an empty heartbeat slice, not a
			// 5xx; the dashboard keeps its previous snapshot.
			h.logger.Errorf("Heartbeat fetch failed: %v", err)
			h.metrics.IncHeartbeatFailure()
		} else {
			hbRecords = heartbeat.Interpret(systems, time.Now())
		}
	}

	c.JSON(http.StatusOK, query.Apply(infra, logs, hbRecords, filter))
}

// Heartbeat serves a fresh interpreted snapshot. Fetch failure is an empty
// list, never an error to the client.
func (h *Handler) Heartbeat(c *gin.Context) {
	if !h.hb.Enabled() {
		c.JSON(http.StatusOK, []heartbeat.Record{})
		return
	}
	systems, err := h.hb.Fetch(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Heartbeat fetch failed: %v", err)
		h.metrics.IncHeartbeatFailure()
		c.JSON(http.StatusOK, []heartbeat.Record{})
		return
	}
	records := heartbeat.Interpret(systems, time.Now())
	if records == nil {
		records = []heartbeat.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// RawWebhooks exposes the debug ring buffer to operators.
func (h *Handler) RawWebhooks(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.RawSnapshot())
}

func wantsHeartbeat(sources []string) bool {
	for _, s := range sources {
		if s == models.SourceHeartbeat {
			return true
		}
	}
	return false
}
