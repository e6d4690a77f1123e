package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
)

// Record is one analysis as written to disk.
type Record struct {
	Timestamp    time.Time       `json:"timestamp"`
	Sequence     int             `json:"sequence"`
	AnalysisID   string          `json:"analysis_id"`
	ImageName    string          `json:"image_name,omitempty"`
	ImageDigest  string          `json:"image_digest,omitempty"`
	Source       string          `json:"detector_source,omitempty"`
	Model        string          `json:"detector_model,omitempty"`
	RawResponse  string          `json:"raw_response,omitempty"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Bundle       analysis.Bundle `json:"bundle"`
}

// Writer persists analyses as one indented JSON file each.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter creates dir if needed. An empty dir means "journal".
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, nowFn: time.Now}, nil
}

// Dir returns the journal directory.
func (w *Writer) Dir() string { return w.dir }

// Record implements analysis.Recorder.
func (w *Writer) Record(_ context.Context, ac analysis.Context) error {
	_, err := w.Write(NewRecord(ac))
	return err
}

// NewRecord flattens an analysis into a journal record.
func NewRecord(ac analysis.Context) *Record {
	rec := &Record{
		Timestamp:   ac.StartedAt,
		AnalysisID:  ac.AnalysisID,
		ImageName:   ac.Image.Name,
		ImageDigest: ac.Image.Digest,
		Success:     !ac.DetectionFailed,
		Bundle:      ac.Bundle(),
	}
	if d := ac.Detection; d != nil {
		rec.Source, rec.Model, rec.RawResponse = d.Source, d.Model, d.Raw
		if d.Err != nil {
			rec.ErrorMessage = d.Err.Error()
		}
	}
	if ac.DetectionFailed && rec.ErrorMessage == "" {
		rec.ErrorMessage = analysis.FailureSummary
	}
	return rec
}

// Write stores rec in a timestamped file and returns its path.
func (w *Writer) Write(rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.Sequence = w.seq
	name := fmt.Sprintf("analysis_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("journal: encode %s: %w", rec.AnalysisID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: write %s: %w", path, err)
	}
	return path, nil
}
