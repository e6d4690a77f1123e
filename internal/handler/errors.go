package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/VikasCh3108/Solar-AI/internal/logic"
	"github.com/VikasCh3108/Solar-AI/internal/types"
	"github.com/VikasCh3108/Solar-AI/pkg/imagery"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, logic.ErrInvalidImage),
		errors.Is(err, logic.ErrMissingInput),
		errors.Is(err, logic.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, imagery.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, logic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrAcquire):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": ...}. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logx.WithContext(r.Context()).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		msg = http.StatusText(status)
	}
	httpx.WriteJsonCtx(r.Context(), w, status, types.ErrorResponse{Error: msg})
}
