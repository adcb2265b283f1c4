// Package enrich resolves cloud resource ids to readable names through an
// injected lookup service, cache-first, with bounded concurrency. The
// upstream SDK is opaque to this package.
package enrich

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
)

// Resolver looks up the display name for a resource or tenancy id.
type Resolver interface {
	ResolveName(ctx context.Context, id string) (string, error)
}

// Service caches lookups and enriches alert batches. Lookup failures fall
// back to a readable identifier derived from the id itself; the alert is
// still stored and served, just with a lower-fidelity label.
type Service struct {
	resolver  Resolver
	logger    *logging.Logger
	chunkSize int
	timeout   time.Duration

	mu    sync.Mutex
	cache map[string]string
}

func New(resolver Resolver, logger *logging.Logger, chunkSize int, timeout time.Duration) *Service {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &Service{
		resolver:  resolver,
		logger:    logger,
		chunkSize: chunkSize,
		timeout:   timeout,
		cache:     make(map[string]string),
	}
}

// DisplayName resolves one id, serving repeats from cache. The non-cached
// path is bounded by the per-lookup timeout and never propagates an error.
func (s *Service) DisplayName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	s.mu.Lock()
	if name, ok := s.cache[id]; ok {
		s.mu.Unlock()
		return name
	}
	s.mu.Unlock()

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name, err := s.resolver.ResolveName(lookupCtx, id)
	if err != nil || name == "" {
		name = FallbackName(id)
		s.logger.Warnf("Name lookup for %s failed (%v), using %q", id, err, name)
	}

	s.mu.Lock()
	s.cache[id] = name
	s.mu.Unlock()
	return name
}

// EnrichBatch fills in missing VM and tenant display names. The batch is
// processed in fixed-size chunks: lookups within a chunk run concurrently,
// chunks run sequentially, bounding outstanding calls.
func (s *Service) EnrichBatch(ctx context.Context, alerts []models.Alert) []models.Alert {
	if s == nil || s.resolver == nil {
		return alerts
	}
	out := make([]models.Alert, len(alerts))
	copy(out, alerts)

	for start := 0; start < len(out); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(out) {
			end = len(out)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(a *models.Alert) {
				defer wg.Done()
				if a.VM == "" && a.Resource.ResourceID != "" {
					a.VM = s.DisplayName(ctx, a.Resource.ResourceID)
				}
				if a.Tenant == "" && a.Compartment != "" {
					a.Tenant = s.DisplayName(ctx, a.Compartment)
				}
			}(&out[i])
		}
		wg.Wait()
	}
	return out
}

// FallbackName derives a readable label from an id when lookup fails:
// the last dot-separated segment of OCID-style ids, shortened.
func FallbackName(id string) string {
	name := id
	if idx := strings.LastIndex(id, "."); idx >= 0 && idx < len(id)-1 {
		name = id[idx+1:]
	}
	if len(name) > 12 {
		name = name[:12]
	}
	return name
}
