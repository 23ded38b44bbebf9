package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Action names the order operation a record describes.
type Action string

const (
	ActionPlace  Action = "place"
	ActionCancel Action = "cancel"
)

// OrderRecord captures one order call: what was sent and what came back.
// A record with neither Response nor Error means the outcome is unknown.
type OrderRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Sequence      int       `json:"sequence"`
	Action        Action    `json:"action"`
	Symbol        string    `json:"symbol"`
	ClientOrderID string    `json:"client_order_id,omitempty"`
	OrderID       int64     `json:"order_id,omitempty"`
	Request       any       `json:"request,omitempty"`
	Response      any       `json:"response,omitempty"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// Writer persists order records to a directory, one JSON file each.
// Safe for concurrent use.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter creates dir if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return &Writer{dir: dir, nowFn: time.Now}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores rec and returns the file path. Timestamp and Sequence are
// assigned here when unset.
func (w *Writer) Write(rec *OrderRecord) (string, error) {
	if rec == nil {
		return "", errors.New("journal: nil record")
	}
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	rec.Sequence = seq
	name := fmt.Sprintf("order_%s_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), rec.Action, seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("journal: encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: %w", err)
	}
	return path, nil
}

// Record is a convenience for the common call shape: it fills Success and
// ErrorMessage from callErr and writes the record.
func (w *Writer) Record(rec OrderRecord, callErr error) (string, error) {
	rec.Success = callErr == nil
	if callErr != nil {
		rec.ErrorMessage = callErr.Error()
	}
	return w.Write(&rec)
}
