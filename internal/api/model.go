package api

import (
	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/alvinbaena/breachguard/pkg/strength"
)

// Password is not marked required, an empty password gets an empty password report.
type queryRequest struct {
	Password string `json:"password"`
}

type hashRequest struct {
	Hash string `json:"hash" binding:"required"`
}

type analyzeResponse struct {
	Strength strength.Report `json:"strength"`
	Breach   analysis.Breach `json:"breach"`
}

type hashResponse struct {
	Breach analysis.Breach `json:"breach"`
}

type errorResponse struct {
	Error string `json:"error"`
}
