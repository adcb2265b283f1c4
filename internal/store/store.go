package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/metrics"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
)

// Upsert outcomes.
const (
	ResultNew     = "new"
	ResultUpdated = "updated"
)

// Store is the capacity-bounded, deduplicating alert collection plus the
// raw-webhook ring buffer. One mutex covers every mutation, so an upsert
// can never interleave with a wipe or prune mid-operation.
//
// Invariant: every dedupe key in keys has exactly one alert in alerts, and
// every stored alert with a non-empty, still-tracked dedupe key appears in
// byKey. The periodic pruner deliberately breaks only the key side of this
// pairing (see PruneDedupeKeys).
type Store struct {
	mu sync.Mutex

	maxAlerts int
	maxRaw    int

	alerts []*models.Alert // newest first
	keys   map[string]struct{}
	byKey  map[string]*models.Alert

	rawLog []models.RawWebhookRecord

	metrics *metrics.Metrics
	now     func() time.Time
}

// New constructs an empty Store. metrics may be nil.
func New(maxAlerts, maxRaw int, m *metrics.Metrics) *Store {
	return &Store{
		maxAlerts: maxAlerts,
		maxRaw:    maxRaw,
		keys:      make(map[string]struct{}),
		byKey:     make(map[string]*models.Alert),
		metrics:   m,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Used in tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// IsDuplicate reports whether the dedupe key is currently tracked. Empty
// keys are never duplicates.
func (s *Store) IsDuplicate(dedupeKey string) bool {
	if dedupeKey == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[dedupeKey]
	return ok
}

// Upsert inserts the alert or merges it into the existing entry sharing its
// dedupe key. On merge the incoming fields win wholesale, except DedupeKey,
// ID and the operator flags, which belong to the stored entry. Alerts with
// an empty dedupe key are always new; the store offers them no
// deduplication guarantee.
func (s *Store) Upsert(alert models.Alert) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alert.DedupeKey != "" {
		if existing, ok := s.byKey[alert.DedupeKey]; ok {
			id := existing.ID
			key := existing.DedupeKey
			read := existing.Read
			acked := existing.Acknowledged
			*existing = alert
			existing.ID = id
			existing.DedupeKey = key
			existing.Read = read
			existing.Acknowledged = acked
			existing.LastUpdated = s.now()
			return ResultUpdated
		}
	}

	stored := alert
	s.alerts = append([]*models.Alert{&stored}, s.alerts...)
	if stored.DedupeKey != "" {
		s.keys[stored.DedupeKey] = struct{}{}
		s.byKey[stored.DedupeKey] = &stored
	}

	if len(s.alerts) > s.maxAlerts {
		oldest := s.alerts[len(s.alerts)-1]
		s.alerts = s.alerts[:len(s.alerts)-1]
		if oldest.DedupeKey != "" {
			delete(s.keys, oldest.DedupeKey)
			delete(s.byKey, oldest.DedupeKey)
		}
		s.metrics.IncEvicted()
	}
	return ResultNew
}

// RecordRaw pushes a raw payload onto the debug ring buffer, dropping the
// oldest entry at capacity.
func (s *Store) RecordRaw(rec models.RawWebhookRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawLog = append(s.rawLog, rec)
	if len(s.rawLog) > s.maxRaw {
		s.rawLog = s.rawLog[len(s.rawLog)-s.maxRaw:]
	}
}

// Wipe clears alerts, dedupe bookkeeping and the raw ring buffer in one
// critical section. No failure path.
func (s *Store) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
	s.keys = make(map[string]struct{})
	s.byKey = make(map[string]*models.Alert)
	s.rawLog = nil
	s.metrics.IncWipe()
}

// PruneDedupeKeys removes dedupe bookkeeping for alerts whose event time is
// older than olderThan. The alerts themselves stay in the collection: a
// re-arrival of a pruned key is treated as brand new. That asymmetry is
// intentional upstream behavior, kept as-is.
func (s *Store) PruneDedupeKeys(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pruned := 0
	for key, alert := range s.byKey {
		if now.Sub(alert.Timestamp) > olderThan {
			delete(s.keys, key)
			delete(s.byKey, key)
			pruned++
		}
	}
	s.metrics.AddPruned(pruned)
	return pruned
}

// ListOptions narrows List output.
type ListOptions struct {
	Severity string
	Resource string // substring match over VM and resource id
	Limit    int
}

// List returns a snapshot of retained alerts, newest first.
func (s *Store) List(opts ListOptions) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if opts.Severity != "" && !strings.EqualFold(a.Severity, opts.Severity) {
			continue
		}
		if opts.Resource != "" {
			needle := strings.ToLower(opts.Resource)
			if !strings.Contains(strings.ToLower(a.VM), needle) &&
				!strings.Contains(strings.ToLower(a.Resource.ResourceID), needle) {
				continue
			}
		}
		out = append(out, *a)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out
}

// RawSnapshot returns a copy of the raw-webhook ring buffer, oldest first.
func (s *Store) RawSnapshot() []models.RawWebhookRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RawWebhookRecord, len(s.rawLog))
	copy(out, s.rawLog)
	return out
}

// MarkRead flags the alert read. Best effort: reports whether the id was
// found.
func (s *Store) MarkRead(id string) bool {
	return s.setFlag(id, func(a *models.Alert) { a.Read = true })
}

// Acknowledge flags the alert acknowledged. Best effort.
func (s *Store) Acknowledge(id string) bool {
	return s.setFlag(id, func(a *models.Alert) { a.Acknowledged = true })
}

func (s *Store) setFlag(id string, mutate func(*models.Alert)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.ID == id {
			mutate(a)
			a.LastUpdated = s.now()
			return true
		}
	}
	return false
}

// Options holds the distinct filter values derivable from the live set.
type Options struct {
	Severities []string `json:"severities"`
	Regions    []string `json:"regions"`
	Tenants    []string `json:"tenants"`
	VMs        []string `json:"vms"`
}

// FilterOptions derives the distinct filter-option values from retained
// alerts. The vocabulary is whatever is currently stored, not a fixed list.
func (s *Store) FilterOptions() Options {
	s.mu.Lock()
	defer s.mu.Unlock()

	sevs := map[string]struct{}{}
	regions := map[string]struct{}{}
	tenants := map[string]struct{}{}
	vms := map[string]struct{}{}
	for _, a := range s.alerts {
		add(sevs, a.Severity)
		add(regions, a.Region)
		add(tenants, a.Tenant)
		add(vms, a.VM)
	}
	return Options{
		Severities: sorted(sevs),
		Regions:    sorted(regions),
		Tenants:    sorted(tenants),
		VMs:        sorted(vms),
	}
}

// Len reports the number of retained alerts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// KeyCount reports the number of tracked dedupe keys.
func (s *Store) KeyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// RawLen reports the raw ring buffer size.
func (s *Store) RawLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rawLog)
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
