package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VikasCh3108/Solar-AI/internal/model"
	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
)

// AnalysesRepo persists finished analyses to Postgres.
type AnalysesRepo struct {
	model model.AnalysesModel
	now   func() time.Time
}

var _ analysis.Recorder = (*AnalysesRepo)(nil)

func NewAnalysesRepo(m model.AnalysesModel) *AnalysesRepo {
	return &AnalysesRepo{model: m, now: time.Now}
}

// Record implements analysis.Recorder.
func (r *AnalysesRepo) Record(ctx context.Context, ac analysis.Context) error {
	row, err := NewAnalysesRow(ac)
	if err != nil {
		return err
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = r.now()
	}
	if _, err := r.model.Insert(ctx, row); err != nil {
		return fmt.Errorf("insert analysis %s: %w", row.Id, err)
	}
	return nil
}

// Find loads one stored analysis and decodes its bundle.
func (r *AnalysesRepo) Find(ctx context.Context, id string) (*analysis.Bundle, error) {
	row, err := r.model.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	var b analysis.Bundle
	if err := json.Unmarshal([]byte(row.Payload), &b); err != nil {
		return nil, fmt.Errorf("decode analysis %s payload: %w", id, err)
	}
	return &b, nil
}

// NewAnalysesRow flattens an analysis into a table row; the full bundle goes
// into the payload column.
func NewAnalysesRow(ac analysis.Context) (*model.Analyses, error) {
	payload, err := json.Marshal(ac.Bundle())
	if err != nil {
		return nil, fmt.Errorf("encode analysis %s: %w", ac.AnalysisID, err)
	}
	row := &model.Analyses{
		Id:            ac.AnalysisID,
		CreatedAt:     ac.StartedAt,
		ImageName:     ac.Image.Name,
		ImageDigest:   ac.Image.Digest,
		Success:       !ac.DetectionFailed,
		IsValid:       ac.Validation.IsValid,
		ValidationMsg: ac.Validation.Message,
		Confidence:    ac.Validation.Confidence,
		CostUsd:       decimal.Zero,
		Payload:       string(payload),
	}
	if d := ac.Detection; d != nil {
		row.DetectorSource, row.DetectorModel = d.Source, d.Model
	}
	if ac.Rooftop != nil {
		row.UsableAreaM2 = sql.NullFloat64{Float64: ac.Rooftop.UsableAreaM2, Valid: true}
	}
	if ac.Recommendation != nil {
		row.NumPanels = int64(ac.Recommendation.NumPanels)
	}
	if ac.ROI != nil {
		row.CostUsd = decimal.NewFromFloat(ac.ROI.CostUSD).Round(2)
	}
	return row, nil
}
