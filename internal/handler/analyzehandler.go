package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/VikasCh3108/Solar-AI/internal/logic"
	"github.com/VikasCh3108/Solar-AI/internal/svc"
	"github.com/VikasCh3108/Solar-AI/internal/types"
	"github.com/VikasCh3108/Solar-AI/pkg/analysis"
	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
)

const (
	formFile     = "file"
	formAddress  = "address"
	formUserType = "user_type"

	maxFormMemory = 32 << 20
)

func AnalyzeHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseAnalyzeRequest(w, r, svcCtx.Config.Imagery.MaxUploadBytes)
		if err != nil {
			writeError(w, r, err)
			return
		}

		l := logic.NewAnalyzeLogic(r.Context(), svcCtx)
		resp, err := l.Analyze(req)
		switch {
		case errors.Is(err, analysis.ErrDetectionFailed):
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, resp)
		case err != nil:
			writeError(w, r, err)
		default:
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func parseAnalyzeRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*types.AnalyzeRequest, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+uploadOverhead)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, imagery.ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %v", logic.ErrMissingInput, err)
	}

	req := &types.AnalyzeRequest{
		Address:  r.FormValue(formAddress),
		UserType: r.FormValue(formUserType),
	}
	file, header, err := r.FormFile(formFile)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", logic.ErrMissingInput, err)
	}
	defer file.Close()

	data, err := imagery.ReadLimited(file, maxBytes)
	if err != nil {
		return nil, err
	}
	req.FileName, req.Data = header.Filename, data
	return req, nil
}
