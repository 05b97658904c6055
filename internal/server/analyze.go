package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/policyxray/policyxray/internal/analysis"
	"github.com/policyxray/policyxray/internal/cache"
	"github.com/policyxray/policyxray/internal/enrich"
	"github.com/policyxray/policyxray/internal/events"
)

type analyzeRequest struct {
	Policy string `json:"policy"`
	UseAI  bool   `json:"use_ai"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	release, ok := s.acquire()
	if !ok {
		writeError(w, http.StatusTooManyRequests, "too many concurrent analyses")
		return
	}
	defer release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBodyBytes)

	var reqBody analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(reqBody.Policy) == "" {
		writeError(w, http.StatusBadRequest, "missing policy text")
		return
	}

	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID, "policy_length", len(reqBody.Policy))
	start := time.Now()

	// AI is honored only when an actual enricher is wired; otherwise the
	// request silently downgrades to rule-only output.
	useAI := reqBody.UseAI && s.enricher != nil

	if res, raw, ok := s.cacheLookup(r.Context(), reqBody.Policy, useAI); ok {
		logger.Info("analysis served from cache", "duration_ms", time.Since(start).Milliseconds())
		s.finish(requestID, &reqBody, useAI, true, res, 0, time.Since(start))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return
	}

	res, err := s.runAnalysis(reqBody.Policy)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	enrichFailures := 0
	if useAI {
		runner := &enrich.Runner{
			Enricher:    s.enricher,
			PerCategory: s.cfg.Enrichment.PerCategory,
			CallTimeout: time.Duration(s.cfg.Enrichment.CallTimeoutSeconds) * time.Second,
			Logger:      logger,
		}
		enrichFailures = runner.Run(r.Context(), res)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		logger.Error("marshal result", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.cacheStore(r.Context(), reqBody.Policy, useAI, payload)

	logger.Info("analysis complete",
		"overall_score", res.Overall.Score,
		"overall_risk_level", res.Overall.RiskLevel,
		"use_ai", useAI,
		"enrichment_failures", enrichFailures,
		"duration_ms", time.Since(start).Milliseconds())
	s.finish(requestID, &reqBody, useAI, false, res, enrichFailures, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// runAnalysis isolates the rule pipeline so a defect in segmentation or
// matching fails only this request.
func (s *Server) runAnalysis(policy string) (res *analysis.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("analysis panic", "panic", rec, "stack", string(debug.Stack()))
			res = nil
			err = errors.New("internal analysis error")
		}
	}()
	return s.analyzer.Analyze(policy), nil
}

func (s *Server) cacheLookup(ctx context.Context, policy string, useAI bool) (*analysis.Result, []byte, bool) {
	if s.cache == nil || s.cfg.Cache.Disabled {
		return nil, nil, false
	}
	raw, err := s.cache.Get(ctx, cache.Key(policy, useAI))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache get", "error", err)
		}
		return nil, nil, false
	}
	var res analysis.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		s.logger.Warn("cache entry corrupt, ignoring", "error", err)
		return nil, nil, false
	}
	return &res, []byte(raw), true
}

func (s *Server) cacheStore(ctx context.Context, policy string, useAI bool, payload []byte) {
	if s.cache == nil || s.cfg.Cache.Disabled {
		return
	}
	ttl := time.Duration(s.cfg.Cache.TTLSeconds) * time.Second
	if err := s.cache.Set(ctx, cache.Key(policy, useAI), string(payload), ttl); err != nil {
		s.logger.Warn("cache set", "error", err)
	}
}

// finish emits the audit event and telemetry for a completed analysis.
func (s *Server) finish(requestID string, req *analyzeRequest, useAI, cacheHit bool, res *analysis.Result, enrichFailures int, latency time.Duration) {
	if s.emitter != nil {
		s.emitter.Emit(events.NewEvent(requestID, len(req.Policy), useAI, cacheHit, res, enrichFailures, latency))
	}
	if s.telemetry != nil {
		s.telemetry.RecordAnalysis(
			string(res.Overall.RiskLevel),
			useAI,
			cacheHit,
			float64(latency.Microseconds())/1000.0,
			float64(res.Timings.Enrich.Microseconds())/1000.0,
			enrichFailures,
		)
	}
}
