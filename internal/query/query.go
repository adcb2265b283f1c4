// Package query is the pure presentation layer: it maps the union of the
// retained alert streams into dashboard records, applies the client's
// filter, and sorts. No I/O, fully testable with fixture slices.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/heartbeat"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
)

// Presentation severities, the closed vocabulary shown in the UI.
const (
	SeverityCritical = "Critical"
	SeverityWarning  = "Warning"
	SeverityError    = "Error"
	SeverityInfo     = "Info"
)

// Presentation categories.
const (
	CategoryServer    = "server"
	CategoryDatabase  = "database"
	CategoryHeartbeat = "heartbeat"
	CategoryLogs      = "logs"
)

// Filter is the client's filter request. SourceIn is required:
// an empty set returns nothing, so no alert leaks across a view boundary
// before the caller establishes its sources.
type Filter struct {
	SeverityIn   []string `json:"severity_in"`
	SourceIn     []string `json:"source_in"`
	Search       string   `json:"search"`
	DynamicValue string   `json:"dynamic_value"`
	Region       string   `json:"region"`
	ResourceType string   `json:"resource_type"`
}

// Record is one presentation-ready alert row.
type Record struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Severity      string    `json:"severity"`
	Category      string    `json:"category"`
	Source        string    `json:"source"`
	Site          string    `json:"site,omitempty"`
	Channel       string    `json:"channel,omitempty"`
	Tenant        string    `json:"tenant,omitempty"`
	VM            string    `json:"vm,omitempty"`
	Region        string    `json:"region,omitempty"`
	CriticalClass bool      `json:"critical_class,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NormalizeSeverity maps free-text severity into the closed presentation
// set. Only infrastructure alerts keep Error distinct; other sources
// collapse error-like text into Info.
func NormalizeSeverity(source, raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "high", "fatal":
		return SeverityCritical
	case "medium", "warning", "warn":
		return SeverityWarning
	case "error":
		if source == models.SourceInfrastructure {
			return SeverityError
		}
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// Apply classifies and filters the union of the three alert streams. Pure
// function of its inputs.
func Apply(infra, logs []models.Alert, hb []heartbeat.Record, f Filter) []Record {
	if len(f.SourceIn) == 0 {
		return []Record{}
	}
	wanted := toSet(f.SourceIn)

	var records []Record
	if _, ok := wanted[models.SourceInfrastructure]; ok {
		for _, a := range infra {
			records = append(records, mapInfrastructure(a))
		}
	}
	if _, ok := wanted[models.SourceLogs]; ok {
		for _, a := range logs {
			records = append(records, mapLog(a))
		}
	}
	if _, ok := wanted[models.SourceHeartbeat]; ok {
		for _, r := range hb {
			records = append(records, mapHeartbeat(r))
		}
	}

	out := make([]Record, 0, len(records))
	sevIn := toSet(f.SeverityIn)
	for _, r := range records {
		if len(sevIn) > 0 {
			if _, ok := sevIn[r.Severity]; !ok {
				continue
			}
		}
		// A record whose source is not in the wanted set at this point
		// indicates contamination upstream; reject it.
		if _, ok := wanted[r.Source]; !ok {
			continue
		}
		if !matchDynamic(r, f.DynamicValue) {
			continue
		}
		if f.Region != "" && r.Source == models.SourceInfrastructure &&
			!strings.EqualFold(r.Region, f.Region) {
			continue
		}
		if f.ResourceType != "" && r.Source == models.SourceInfrastructure &&
			!strings.EqualFold(r.Category, f.ResourceType) {
			continue
		}
		if !matchSearch(r, f.Search) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func mapInfrastructure(a models.Alert) Record {
	category := CategoryServer
	if a.Domain == models.DomainDatabase {
		category = CategoryDatabase
	}
	return Record{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Message,
		Severity:    NormalizeSeverity(models.SourceInfrastructure, a.Severity),
		Category:    category,
		Source:      models.SourceInfrastructure,
		Tenant:      a.Tenant,
		VM:          a.VM,
		Region:      a.Region,
		Timestamp:   a.Timestamp,
	}
}

func mapLog(a models.Alert) Record {
	return Record{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Message,
		Severity:    NormalizeSeverity(models.SourceLogs, a.Severity),
		Category:    CategoryLogs,
		Source:      models.SourceLogs,
		Channel:     a.Channel,
		Timestamp:   a.Timestamp,
	}
}

func mapHeartbeat(r heartbeat.Record) Record {
	return Record{
		ID:            r.Site + "/" + r.Service,
		Title:         r.Message,
		Description:   r.Message,
		Severity:      NormalizeSeverity(models.SourceHeartbeat, r.Severity),
		Category:      CategoryHeartbeat,
		Source:        models.SourceHeartbeat,
		Site:          r.SiteName,
		CriticalClass: r.CriticalClass,
		Timestamp:     r.Timestamp,
	}
}

// matchDynamic applies the source-specific free-value filter: channel for
// log alerts, tenant or VM for infrastructure, site for heartbeat.
func matchDynamic(r Record, value string) bool {
	if value == "" {
		return true
	}
	needle := strings.ToLower(value)
	switch r.Source {
	case models.SourceLogs:
		return strings.EqualFold(r.Channel, value)
	case models.SourceInfrastructure:
		return strings.Contains(strings.ToLower(r.Tenant), needle) ||
			strings.Contains(strings.ToLower(r.VM), needle)
	case models.SourceHeartbeat:
		return strings.Contains(strings.ToLower(r.Site), needle)
	}
	return false
}

func matchSearch(r Record, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(r.Title), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle) ||
		strings.Contains(strings.ToLower(r.Site), needle)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
