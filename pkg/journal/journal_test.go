package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
	"github.com/VikasCh3108/Solar-AI/pkg/rooftop"
)

func TestWriterRecordsAnalyses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	w, err := NewWriter(dir)
	require.NoError(t, err)

	started := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	roof := rooftop.RooftopResult{Mask: rooftop.MockMask, UsableAreaM2: 42.3, Summary: "ok"}
	ac := analysis.Context{
		AnalysisID: "a-1",
		StartedAt:  started,
		Image:      imagery.Image{Name: "roof.png", Digest: "abc"},
		Detection:  &rooftop.Detection{Raw: "{}", Source: rooftop.SourceMock, Model: "mock", Fields: roof.Fields()},
		Rooftop:    &roof,
		Validation: analysis.Validation{IsValid: true, Message: rooftop.MsgValid, Confidence: 0.9},
	}
	require.NoError(t, w.Record(context.Background(), ac))

	path := filepath.Join(dir, "analysis_20250501_083000_00001.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, 1, rec.Sequence)
	assert.Equal(t, "a-1", rec.AnalysisID)
	assert.Equal(t, "mock", rec.Model)
	assert.True(t, rec.Success)
	assert.Empty(t, rec.ErrorMessage)
	assert.Equal(t, 0.9, rec.Bundle.RooftopValidation.Confidence)
	require.NotNil(t, rec.Bundle.Rooftop.UsableAreaM2)
	assert.Equal(t, 42.3, *rec.Bundle.Rooftop.UsableAreaM2)
}

func TestNewRecordFailure(t *testing.T) {
	rec := NewRecord(analysis.Context{
		AnalysisID:      "a-2",
		DetectionFailed: true,
		Detection:       &rooftop.Detection{Raw: "nope", Err: rooftop.ErrParse},
	})
	assert.False(t, rec.Success)
	assert.Equal(t, rooftop.ErrParse.Error(), rec.ErrorMessage)
	assert.Nil(t, rec.Bundle.Rooftop.Mask)

	rec = NewRecord(analysis.Context{DetectionFailed: true})
	assert.Equal(t, analysis.FailureSummary, rec.ErrorMessage)
}

func TestWriterConcurrentSequence(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	w.nowFn = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Write(&Record{AnalysisID: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(w.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 8)

	_, err = w.Write(nil)
	require.Error(t, err)
}
