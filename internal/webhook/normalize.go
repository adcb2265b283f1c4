package webhook

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
)

// fieldKeys is the schema-mapping table: one ordered candidate-key list per
// logical Alert field. Upstream senders have changed their payload shape
// several times; tolerating the next change means editing this table, not
// adding branches.
var fieldKeys = map[string][]string{
	"id":                 {"id", "alertId", "alarmId", "messageId", "notificationId"},
	"dedupeKey":          {"dedupeKey", "dedupekey", "deduplicationKey", "alarmOCID"},
	"severity":           {"severity", "priority", "level", "alarmSeverity"},
	"title":              {"title", "message", "alertTitle", "name", "subject"},
	"message":            {"body", "summary", "description", "alarmSummary", "text"},
	"vm":                 {"vm", "resourceName", "resourceDisplayName", "instanceName", "hostname"},
	"tenant":             {"tenant", "tenantName", "tenancy", "tenancyName"},
	"region":             {"region", "regionName"},
	"compartment":        {"compartment", "compartmentName"},
	"alertType":          {"alertType", "alarmType", "type"},
	"metricName":         {"metricName", "metric", "namespace"},
	"query":              {"query", "metricQuery", "mql"},
	"threshold":          {"threshold", "thresholdValue"},
	"currentValue":       {"currentValue", "value", "metricValue"},
	"unit":               {"unit", "metricUnit"},
	"timestamp":          {"timestamp", "timestampEpochMillis", "eventTime", "time"},
	"resourceId":         {"resourceId", "resourceOCID", "ocid"},
	"imageId":            {"imageId"},
	"shape":              {"shape", "instanceShape"},
	"availabilityDomain": {"availabilityDomain", "ad"},
	"faultDomain":        {"faultDomain"},
	"instancePoolId":     {"instancePoolId", "poolId"},
}

// serverMetrics and databaseMetrics are explicit query-language metric
// identifiers; a match here decides the domain before any keyword scan.
var serverMetrics = []string{
	"cpuutilization", "memoryutilization", "diskutilization",
	"diskbytesread", "diskbyteswritten", "networksbytesin", "networksbytesout",
}

var databaseMetrics = []string{
	"tablespaceusedpercent", "storageutilization", "sessioncount",
	"cpuutilization_database", "dbcpu", "executecount",
}

var serverKeywords = []string{
	"cpu", "memory", "disk", "network", "instance", "compute", "host", "vm",
}

var databaseKeywords = []string{
	"database", "tablespace", "oracle", "autonomous", "session", "sql", "adb",
}

// logColorSeverity maps the log-pipeline attachment color to a severity.
// Hex match is case-insensitive; anything unlisted is unknown.
var logColorSeverity = map[string]string{
	"#ff0000": "critical",
	"#ffa500": "high",
	"#ffff00": "medium",
	"#008000": "low",
	"#0000ff": "info",
	"#999999": "unknown",
}

// Result is the outcome of normalizing one payload. Control is set for
// protocol messages (subscription confirmations) that bypass alert
// construction entirely.
type Result struct {
	Control     bool
	ControlType string
	Alert       models.Alert
}

// Normalizer turns raw webhook payloads of any known (or unknown) shape
// into canonical Alerts. It never fails: every field has a default.
type Normalizer struct {
	logger *logging.Logger
	now    func() time.Time
}

func NewNormalizer(logger *logging.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// SetClock overrides the time source. Used in tests.
func (n *Normalizer) SetClock(now func() time.Time) {
	n.now = now
}

// Normalize handles the infrastructure-alert shape: flat JSON or a
// {payload: {...}} wrapper, with a type discriminator for control messages.
func (n *Normalizer) Normalize(payload map[string]any) Result {
	if t, ok := payload["type"].(string); ok && t == "SubscriptionConfirmation" {
		n.logger.Infof("Received subscription confirmation for topic %v", payload["topicId"])
		return Result{Control: true, ControlType: t}
	}

	body := payload
	if inner, ok := payload["payload"].(map[string]any); ok {
		body = inner
	}

	now := n.now()
	alert := models.Alert{
		ID:        ExtractString(body, fieldKeys["id"], n.synthesizeID(now)),
		DedupeKey: ExtractString(body, fieldKeys["dedupeKey"], n.synthesizeID(now)),
		Severity:  ExtractString(body, fieldKeys["severity"], "unknown"),
		Title:     ExtractString(body, fieldKeys["title"], "Infrastructure Alert"),
		Message:   ExtractString(body, fieldKeys["message"], ""),
		Source:    models.SourceInfrastructure,

		VM:           ExtractString(body, fieldKeys["vm"], ""),
		Tenant:       ExtractString(body, fieldKeys["tenant"], ""),
		Region:       ExtractString(body, fieldKeys["region"], ""),
		Compartment:  ExtractString(body, fieldKeys["compartment"], ""),
		AlertType:    ExtractString(body, fieldKeys["alertType"], ""),
		MetricName:   ExtractString(body, fieldKeys["metricName"], ""),
		Query:        ExtractString(body, fieldKeys["query"], ""),
		Threshold:    ExtractString(body, fieldKeys["threshold"], ""),
		CurrentValue: ExtractString(body, fieldKeys["currentValue"], ""),
		Unit:         ExtractString(body, fieldKeys["unit"], ""),
		Resource: models.Resource{
			ResourceID:         ExtractString(body, fieldKeys["resourceId"], ""),
			ImageID:            ExtractString(body, fieldKeys["imageId"], ""),
			Shape:              ExtractString(body, fieldKeys["shape"], ""),
			AvailabilityDomain: ExtractString(body, fieldKeys["availabilityDomain"], ""),
			FaultDomain:        ExtractString(body, fieldKeys["faultDomain"], ""),
			InstancePoolID:     ExtractString(body, fieldKeys["instancePoolId"], ""),
		},

		Timestamp:         n.extractTimestamp(body, now),
		WebhookReceivedAt: now,
		LastUpdated:       now,
	}
	alert.Domain = n.classifyDomain(alert)

	return Result{Alert: alert}
}

// NormalizeLog handles the log-pipeline shape: attachments with a color,
// plus channel/username metadata. Severity comes from the color table.
func (n *Normalizer) NormalizeLog(payload map[string]any) Result {
	now := n.now()
	alert := models.Alert{
		ID:                n.synthesizeID(now),
		Severity:          "unknown",
		Source:            models.SourceLogs,
		Channel:           ExtractString(payload, []string{"channel"}, ""),
		Title:             ExtractString(payload, []string{"text", "username"}, "Log Alert"),
		Timestamp:         now,
		WebhookReceivedAt: now,
		LastUpdated:       now,
	}

	if atts, ok := payload["attachments"].([]any); ok && len(atts) > 0 {
		if att, ok := atts[0].(map[string]any); ok {
			alert.Title = ExtractString(att, []string{"title", "fallback"}, alert.Title)
			alert.Message = ExtractString(att, []string{"text"}, "")
			color := strings.ToLower(ExtractString(att, []string{"color"}, ""))
			if sev, ok := logColorSeverity[color]; ok {
				alert.Severity = sev
			}
		}
	}
	if alert.Message == "" {
		alert.Message = ExtractString(payload, []string{"text"}, "")
	}

	return Result{Alert: alert}
}

// classifyDomain assigns server or database in priority order: explicit
// query metric match, then keyword scan over the human-readable text, then
// server as the documented default.
func (n *Normalizer) classifyDomain(alert models.Alert) string {
	probe := strings.ToLower(alert.Query + " " + alert.MetricName)
	for _, m := range serverMetrics {
		if strings.Contains(probe, m) {
			return models.DomainServer
		}
	}
	for _, m := range databaseMetrics {
		if strings.Contains(probe, m) {
			return models.DomainDatabase
		}
	}

	text := strings.ToLower(alert.Title + " " + alert.Message)
	for _, kw := range serverKeywords {
		if strings.Contains(text, kw) {
			return models.DomainServer
		}
	}
	for _, kw := range databaseKeywords {
		if strings.Contains(text, kw) {
			return models.DomainDatabase
		}
	}

	n.logger.Warnf("Alert %q matched no domain signal, defaulting to server", alert.Title)
	return models.DomainServer
}

func (n *Normalizer) extractTimestamp(body map[string]any, fallback time.Time) time.Time {
	v := Extract(body, fieldKeys["timestamp"], nil)
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts
		}
	case float64:
		// epoch millis for values clearly past seconds range
		if t > 1e12 {
			return time.UnixMilli(int64(t))
		}
		return time.Unix(int64(t), 0)
	}
	return fallback
}

func (n *Normalizer) synthesizeID(now time.Time) string {
	return fmt.Sprintf("webhook-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
