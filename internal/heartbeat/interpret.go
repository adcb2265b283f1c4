package heartbeat

import (
	"strings"
	"time"
)

// Service statuses as delivered by the status feed.
const (
	StatusGreen  = "GREEN"
	StatusRed    = "RED"
	StatusOrange = "ORANGE"
)

// System is one monitored site's snapshot. Field names mirror the upstream
// feed. A service the site does not run arrives empty or as a placeholder.
type System struct {
	Site      string `json:"SITE"`
	SiteName  string `json:"SITENAME"`
	SiteType  string `json:"SITETYPE"`
	Web       string `json:"WEB"`
	DB        string `json:"DB"`
	JobRunner string `json:"JOBRUNNER"`
	Reporting string `json:"REPORTING"`
}

// Record is one (site, service) status expanded into an alert-like record.
type Record struct {
	Site          string    `json:"site"`
	SiteName      string    `json:"site_name"`
	Service       string    `json:"service"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
	CriticalClass bool      `json:"critical_class"`
	Timestamp     time.Time `json:"timestamp"`
}

// criticalSiteFragments flags sites whose name matches one of these
// fragments as critical-class. The flag drives client-side audible
// alerting, not the record's severity.
var criticalSiteFragments = []string{
	"prod", "payment", "core", "billing", "primary",
}

type service struct {
	name   string
	status func(System) string
}

// Expansion order is fixed so output is deterministic for a given snapshot.
var services = []service{
	{"Web", func(s System) string { return s.Web }},
	{"Database", func(s System) string { return s.DB }},
	{"Job Runner", func(s System) string { return s.JobRunner }},
	{"Reporting", func(s System) string { return s.Reporting }},
}

// IsCriticalSite reports case-insensitive substring membership against the
// known critical system-name fragments.
func IsCriticalSite(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range criticalSiteFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Interpret expands each snapshot into one Record per (site, service) pair
// with a known status. Placeholder statuses are skipped entirely.
func Interpret(systems []System, now time.Time) []Record {
	var out []Record
	for _, sys := range systems {
		known := 0
		for _, svc := range services {
			if isKnown(svc.status(sys)) {
				known++
			}
		}
		critical := IsCriticalSite(sys.SiteName) || IsCriticalSite(sys.Site)

		for _, svc := range services {
			status := strings.ToUpper(strings.TrimSpace(svc.status(sys)))
			if !isKnown(status) {
				continue
			}
			rec := Record{
				Site:          sys.Site,
				SiteName:      sys.SiteName,
				Service:       svc.name,
				CriticalClass: critical,
				Timestamp:     now,
			}
			switch status {
			case StatusRed:
				rec.Severity = "critical"
				rec.Message = svc.name + " service is down on " + sys.SiteName
			case StatusOrange:
				rec.Severity = "medium"
				rec.Message = svc.name + " has warnings on " + sys.SiteName
			case StatusGreen:
				rec.Severity = "info"
				if known == 1 {
					rec.Message = sys.SiteName + " operational"
				} else {
					rec.Message = svc.name + " on " + sys.SiteName + " is operational"
				}
			}
			out = append(out, rec)
		}
	}
	return out
}

func isKnown(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusGreen, StatusRed, StatusOrange:
		return true
	}
	return false
}
