package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
)

// DebugLog appends raw payloads to per-domain, per-day NDJSON files for
// forensic replay. Write failures are logged and swallowed; they never
// block webhook acknowledgment.
type DebugLog struct {
	dir    string
	logger *logging.Logger
	mu     sync.Mutex
}

func NewDebugLog(dir string, logger *logging.Logger) *DebugLog {
	return &DebugLog{dir: dir, logger: logger}
}

// Append writes one record to <domain>-alerts-<YYYY-MM-DD>.json.
func (d *DebugLog) Append(domain string, rec models.RawWebhookRecord) {
	if d == nil || d.dir == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		d.logger.Errorf("Debug log dir create failed: %v", err)
		return
	}
	name := domain + "-alerts-" + rec.Timestamp.Format("2006-01-02") + ".json"
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		d.logger.Errorf("Debug log open failed: %v", err)
		return
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		d.logger.Errorf("Debug log marshal failed: %v", err)
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		d.logger.Errorf("Debug log write failed: %v", err)
	}
}
