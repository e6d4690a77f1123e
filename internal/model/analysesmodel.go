package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var analysesFieldNames = []string{
	"id", "created_at", "image_name", "image_digest", "detector_source", "detector_model",
	"success", "is_valid", "validation_msg", "confidence", "usable_area_m2", "num_panels",
	"cost_usd", "payload",
}

var (
	analysesRows         = strings.Join(analysesFieldNames, ",")
	analysesPlaceholders = placeholders(len(analysesFieldNames))
)

var _ AnalysesModel = (*defaultAnalysesModel)(nil)

type (
	// AnalysesModel reads and writes the analyses table.
	AnalysesModel interface {
		Insert(ctx context.Context, data *Analyses) (sql.Result, error)
		FindOne(ctx context.Context, id string) (*Analyses, error)
		FindByDigest(ctx context.Context, digest string, limit int) ([]*Analyses, error)
	}

	defaultAnalysesModel struct {
		conn  sqlx.SqlConn
		table string
	}

	Analyses struct {
		Id             string          `db:"id"`
		CreatedAt      time.Time       `db:"created_at"`
		ImageName      string          `db:"image_name"`
		ImageDigest    string          `db:"image_digest"`
		DetectorSource string          `db:"detector_source"`
		DetectorModel  string          `db:"detector_model"`
		Success        bool            `db:"success"`
		IsValid        bool            `db:"is_valid"`
		ValidationMsg  string          `db:"validation_msg"`
		Confidence     float64         `db:"confidence"`
		UsableAreaM2   sql.NullFloat64 `db:"usable_area_m2"`
		NumPanels      int64           `db:"num_panels"`
		CostUsd        decimal.Decimal `db:"cost_usd"`
		Payload        string          `db:"payload"`
	}
)

// NewAnalysesModel returns a model for the analyses table.
func NewAnalysesModel(conn sqlx.SqlConn) AnalysesModel {
	return &defaultAnalysesModel{conn: conn, table: `"public"."analyses"`}
}

func (m *defaultAnalysesModel) Insert(ctx context.Context, data *Analyses) (sql.Result, error) {
	query := fmt.Sprintf("insert into %s (%s) values (%s)", m.table, analysesRows, analysesPlaceholders)
	return m.conn.ExecCtx(ctx, query,
		data.Id, data.CreatedAt, data.ImageName, data.ImageDigest, data.DetectorSource, data.DetectorModel,
		data.Success, data.IsValid, data.ValidationMsg, data.Confidence, data.UsableAreaM2, data.NumPanels,
		data.CostUsd, data.Payload)
}

func (m *defaultAnalysesModel) FindOne(ctx context.Context, id string) (*Analyses, error) {
	query := fmt.Sprintf("select %s from %s where id = $1 limit 1", analysesRows, m.table)
	var resp Analyses
	err := m.conn.QueryRowCtx(ctx, &resp, query, id)
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultAnalysesModel) FindByDigest(ctx context.Context, digest string, limit int) ([]*Analyses, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("select %s from %s where image_digest = $1 order by created_at desc limit $2", analysesRows, m.table)
	var resp []*Analyses
	if err := m.conn.QueryRowsCtx(ctx, &resp, query, digest, limit); err != nil {
		return nil, err
	}
	return resp, nil
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
