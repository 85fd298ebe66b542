// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/alvinbaena/breachguard/pkg/strength"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DigestChecker looks up a digest the client hashed itself. *hibp.Checker implements it.
type DigestChecker interface {
	CheckDigest(ctx context.Context, digest string) (hibp.Verdict, error)
}

type queryApi struct {
	analyzer *analysis.Analyzer
	digests  DigestChecker
	timeout  time.Duration
}

func (q *queryApi) analyzePassword(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object with a password field"})
		return
	}

	result, err := q.analyzer.Analyze(c.Request.Context(), req.Password)
	if err != nil {
		abortInvalid(c, err)
		return
	}

	if result.Breach.Status == analysis.StatusUnknown {
		log.Warn().Err(result.Breach.Err).Str("request_id", c.GetString(requestIDKey)).Msg("breach lookup failed")
	}

	c.JSON(http.StatusOK, analyzeResponse{Strength: result.Strength, Breach: result.Breach})
}

func (q *queryApi) passwordStrength(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object with a password field"})
		return
	}

	report, err := q.analyzer.Strength(req.Password)
	if err != nil {
		abortInvalid(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (q *queryApi) checkHash(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: hibp.ErrInvalidDigest.Error()})
		return
	}

	ctx := c.Request.Context()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	verdict, err := q.digests.CheckDigest(ctx, req.Hash)
	switch {
	case errors.Is(err, hibp.ErrInvalidDigest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case hibp.IsUpstreamError(err):
		log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("breach lookup failed")
		c.JSON(http.StatusBadGateway, hashResponse{Breach: analysis.BreachFromVerdict(verdict, err)})
		return
	case hibp.IsNetworkError(err):
		log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("breach lookup failed")
		c.JSON(http.StatusGatewayTimeout, hashResponse{Breach: analysis.BreachFromVerdict(verdict, err)})
		return
	case err != nil:
		log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("error checking hash")
		c.JSON(http.StatusInternalServerError, hashResponse{Breach: analysis.BreachFromVerdict(verdict, err)})
		return
	}

	c.JSON(http.StatusOK, hashResponse{Breach: analysis.BreachFromVerdict(verdict, nil)})
}

func abortInvalid(c *gin.Context, err error) {
	if errors.Is(err, strength.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("error analyzing password")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// RegisterQueryApi mounts the analysis endpoints on group.
func RegisterQueryApi(group *gin.RouterGroup, analyzer *analysis.Analyzer, digests DigestChecker, timeout time.Duration) {
	q := &queryApi{analyzer: analyzer, digests: digests, timeout: timeout}

	group.POST("/analyze", q.analyzePassword)
	group.POST("/strength", q.passwordStrength)
	group.POST("/check/hash", q.checkHash)
}
