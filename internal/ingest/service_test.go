package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/store"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/webhook"
)

type fakeNotifier struct {
	queued []models.Alert
}

func (f *fakeNotifier) QueueCritical(alert models.Alert) {
	f.queued = append(f.queued, alert)
}

func newTestService(t *testing.T, notifier Notifier) (*Service, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	logger := logging.NewNop()
	st := store.New(10, 10, nil)
	svc := New(webhook.NewNormalizer(logger), st, store.NewDebugLog(dir, logger), notifier, nil, logger)
	return svc, st, dir
}

func TestIngestInfrastructureStoresAlert(t *testing.T) {
	svc, st, _ := newTestService(t, nil)

	res := svc.IngestInfrastructure(map[string]any{
		"title":     "High CPU",
		"severity":  "warning",
		"dedupeKey": "k1",
	})
	assert.Equal(t, StatusNew, res.Status)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 1, st.RawLen())

	res = svc.IngestInfrastructure(map[string]any{
		"title":     "High CPU",
		"severity":  "critical",
		"dedupeKey": "k1",
	})
	assert.Equal(t, StatusUpdated, res.Status)
	assert.Equal(t, 1, st.Len())

	alerts := st.List(store.ListOptions{})
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Severity)
}

func TestIngestControlShortCircuits(t *testing.T) {
	svc, st, _ := newTestService(t, nil)

	res := svc.IngestInfrastructure(map[string]any{
		"type":    "SubscriptionConfirmation",
		"topicId": "t1",
	})
	assert.Equal(t, StatusControl, res.Status)
	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 0, st.RawLen())
}

func TestIngestWritesDebugFile(t *testing.T) {
	svc, _, dir := newTestService(t, nil)

	svc.IngestInfrastructure(map[string]any{
		"title": "tablespace nearly full",
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "database-alerts-"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".json"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tablespace nearly full")
}

func TestIngestLogUsesLogDomainFile(t *testing.T) {
	svc, st, dir := newTestService(t, nil)

	res := svc.IngestLog(map[string]any{
		"channel": "#ops",
		"attachments": []any{
			map[string]any{"color": "#ff0000", "title": "errors spiking"},
		},
	})
	assert.Equal(t, StatusNew, res.Status)
	assert.Equal(t, "critical", res.Alert.Severity)
	assert.Equal(t, 1, st.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "logs-alerts-"))
}

func TestCriticalAlertsQueuedForNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _, _ := newTestService(t, notifier)

	svc.IngestInfrastructure(map[string]any{"title": "ok-ish", "severity": "info"})
	assert.Empty(t, notifier.queued)

	svc.IngestInfrastructure(map[string]any{"title": "bad", "severity": "critical"})
	require.Len(t, notifier.queued, 1)
	assert.Equal(t, "bad", notifier.queued[0].Title)

	// "high" normalizes to the Critical presentation tier
	svc.IngestInfrastructure(map[string]any{"title": "also bad", "severity": "high"})
	assert.Len(t, notifier.queued, 2)
}
