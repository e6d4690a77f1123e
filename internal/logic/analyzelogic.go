package logic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/VikasCh3108/Solar-AI/internal/svc"
	"github.com/VikasCh3108/Solar-AI/internal/types"
	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
)

var (
	// ErrInvalidImage marks uploads that could not be decoded.
	ErrInvalidImage = errors.New("invalid image")
	// ErrMissingInput marks requests with neither a file nor an address.
	ErrMissingInput = errors.New("missing file")
	// ErrInvalidInput marks malformed form values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAcquire marks satellite imagery failures.
	ErrAcquire = errors.New("image acquisition failed")
)

var userTypes = map[string]bool{"": true, "homeowner": true, "professional": true}

type AnalyzeLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAnalyzeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AnalyzeLogic {
	return &AnalyzeLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Analyze runs the pipeline for one upload. On analysis.ErrDetectionFailed
// the partial bundle is returned with the error.
func (l *AnalyzeLogic) Analyze(req *types.AnalyzeRequest) (*types.AnalyzeResponse, error) {
	if !userTypes[strings.ToLower(req.UserType)] {
		return nil, fmt.Errorf("%w: user_type must be homeowner or professional", ErrInvalidInput)
	}
	img, err := l.acquire(req)
	if err != nil {
		return nil, err
	}

	ac, err := l.svcCtx.Pipeline.Run(l.ctx, analysis.Input{
		Image: img,
		UserInput: analysis.UserInput{
			ImageFile: req.FileName,
			Address:   req.Address,
			UserType:  strings.ToLower(req.UserType),
		},
	})
	if err != nil && !errors.Is(err, analysis.ErrDetectionFailed) {
		return nil, err
	}
	resp := ac.Bundle()
	l.Infof("/analyze processed %s in %.3fs", img.Name, resp.Performance[analysis.StageTotal+"_sec"])
	return &resp, err
}

func (l *AnalyzeLogic) acquire(req *types.AnalyzeRequest) (imagery.Image, error) {
	if len(req.Data) > 0 {
		img, err := imagery.Preprocess(req.FileName, bytes.NewReader(req.Data), l.svcCtx.Config.Imagery.Size)
		if err != nil {
			return imagery.Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return img, nil
	}
	if strings.TrimSpace(req.Address) == "" {
		return imagery.Image{}, ErrMissingInput
	}
	img, err := l.svcCtx.Acquirer.Acquire(l.ctx, imagery.Input{Address: req.Address})
	if err != nil {
		return imagery.Image{}, fmt.Errorf("%w: %v", ErrAcquire, err)
	}
	return img, nil
}
