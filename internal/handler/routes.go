package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/VikasCh3108/Solar-AI/internal/svc"
)

// uploadOverhead leaves room for multipart headers and form values.
const uploadOverhead = 1 << 20

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/analyze",
				Handler: AnalyzeHandler(serverCtx),
			},
		},
		rest.WithMaxBytes(serverCtx.Config.Imagery.MaxUploadBytes+uploadOverhead),
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/analyses/:id",
				Handler: GetAnalysisHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/healthz",
				Handler: HealthHandler(serverCtx),
			},
		},
	)
}
