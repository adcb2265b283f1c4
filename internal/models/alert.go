package models

import "time"

// Alert sources as they appear in the dashboard.
const (
	SourceInfrastructure = "infrastructure"
	SourceLogs           = "logs"
	SourceHeartbeat      = "heartbeat"
)

// Alert resource domains assigned at normalization time.
const (
	DomainServer   = "server"
	DomainDatabase = "database"
)

// Resource holds the sub-fields describing the cloud resource an
// infrastructure alert fired on.
type Resource struct {
	ResourceID         string `json:"resource_id,omitempty"`
	ImageID            string `json:"image_id,omitempty"`
	Shape              string `json:"shape,omitempty"`
	AvailabilityDomain string `json:"availability_domain,omitempty"`
	FaultDomain        string `json:"fault_domain,omitempty"`
	InstancePoolID     string `json:"instance_pool_id,omitempty"`
}

// Alert is the canonical record produced by normalization. The dedupe key,
// not the id, is the true identity: re-deliveries of the same logical event
// may carry different ids but share a dedupe key.
type Alert struct {
	ID        string `json:"id"`
	DedupeKey string `json:"dedupe_key,omitempty"`

	// Severity stays free-text as received; the closed presentation
	// vocabulary is applied at query time.
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`

	Source  string `json:"source"`
	Domain  string `json:"domain,omitempty"`
	Channel string `json:"channel,omitempty"`

	VM           string   `json:"vm,omitempty"`
	Tenant       string   `json:"tenant,omitempty"`
	Region       string   `json:"region,omitempty"`
	Compartment  string   `json:"compartment,omitempty"`
	AlertType    string   `json:"alert_type,omitempty"`
	MetricName   string   `json:"metric_name,omitempty"`
	Query        string   `json:"query,omitempty"`
	Threshold    string   `json:"threshold,omitempty"`
	CurrentValue string   `json:"current_value,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Resource     Resource `json:"resource,omitempty"`

	// Timestamp is event time, possibly from the payload;
	// WebhookReceivedAt and LastUpdated are arrival/mutation time.
	Timestamp         time.Time `json:"timestamp"`
	WebhookReceivedAt time.Time `json:"webhook_received_at"`
	LastUpdated       time.Time `json:"last_updated"`

	Read         bool `json:"read"`
	Acknowledged bool `json:"acknowledged"`
}

// RawWebhookRecord preserves a received payload verbatim for operator
// debugging and forensic replay. Never consulted by query paths.
type RawWebhookRecord struct {
	Timestamp  time.Time      `json:"timestamp"`
	AlertType  string         `json:"alertType"`
	Source     string         `json:"source"`
	RawPayload map[string]any `json:"rawPayload"`
}
