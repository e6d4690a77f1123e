package types

import "github.com/VikasCh3108/Solar-AI/pkg/analysis"

// AnalyzeRequest is a parsed /analyze upload. Data is empty when only an
// address was given.
type AnalyzeRequest struct {
	FileName string
	Data     []byte
	Address  string
	UserType string
}

type AnalyzeResponse = analysis.Bundle

type GetAnalysisRequest struct {
	Id string `path:"id"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	VisionMode string `json:"vision_mode"`
	Model      string `json:"model"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
