package logic

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/internal/model"
	"github.com/VikasCh3108/Solar-AI/internal/svc"
	"github.com/VikasCh3108/Solar-AI/internal/types"
)

// ErrNotFound is returned for unknown analyses and when storage is disabled.
var ErrNotFound = errors.New("analysis not found")

type GetAnalysisLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetAnalysisLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetAnalysisLogic {
	return &GetAnalysisLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetAnalysisLogic) GetAnalysis(req *types.GetAnalysisRequest) (*types.AnalyzeResponse, error) {
	if l.svcCtx.Analyses == nil || req.Id == "" {
		return nil, ErrNotFound
	}
	b, err := l.svcCtx.Analyses.Find(l.ctx, req.Id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
