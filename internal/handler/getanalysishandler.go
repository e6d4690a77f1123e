package handler

import (
	"fmt"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/VikasCh3108/Solar-AI/internal/logic"
	"github.com/VikasCh3108/Solar-AI/internal/svc"
	"github.com/VikasCh3108/Solar-AI/internal/types"
)

func GetAnalysisHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GetAnalysisRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", logic.ErrInvalidInput, err))
			return
		}

		l := logic.NewGetAnalysisLogic(r.Context(), svcCtx)
		resp, err := l.GetAnalysis(&req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
