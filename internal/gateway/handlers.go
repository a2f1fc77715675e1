// internal/gateway/handlers.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	commonerrors "caregiver-matching/internal/common/errors"
	"caregiver-matching/internal/common/metrics"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/models"
	"caregiver-matching/pkg/registry"

	"github.com/gofiber/fiber/v2"
)

const (
	statusOK       = "ok"
	statusRejected = "rejected"
	statusTimeout  = "timeout"
	statusError    = "error"
)

// MatchResponse is the body of a successful POST /match.
type MatchResponse struct {
	Engine     string                  `json:"engine"`
	LatencyMs  int64                   `json:"latency_ms"`
	Count      int                     `json:"count"`
	PoolSize   int                     `json:"pool_size"`
	Results    []models.MatchResult    `json:"results"`
	Statistics *models.MatchStatistics `json:"statistics,omitempty"`
}

type EngineStatus struct {
	Name        string                 `json:"name"`
	DisplayName string                 `json:"displayName,omitempty"`
	Description string                 `json:"description,omitempty"`
	Policy      string                 `json:"policy,omitempty"`
	Default     bool                   `json:"default"`
	Healthy     bool                   `json:"healthy"`
	Status      engines.HealthStatus   `json:"status"`
	Message     string                 `json:"message,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

func (s *Server) handleMatch(c *fiber.Ctx) error {
	start := time.Now()

	req, err := parseMatchRequest(c, s.cfg.Gateway.DefaultTopK, s.cfg.Gateway.MaxTopK)
	if err != nil {
		s.record(c.UserContext(), "none", statusRejected, start, 0)
		return err
	}

	engine, err := s.registry.Resolve(req.Engine)
	if err != nil {
		name := req.Engine
		if name == "" {
			name = s.registry.Default()
		}
		s.record(c.UserContext(), "none", statusRejected, start, 0)
		return commonerrors.NewUnknownEngineError(name, s.registry.Names())
	}
	name := engine.Name()
	log := s.logger.WithFields(map[string]interface{}{
		"engine":    name,
		"requestId": c.Locals(localsRequestID),
	})

	snap, err := s.pool.Snapshot(c.UserContext())
	if err != nil {
		log.Error("Candidate pool unavailable, request failed", map[string]interface{}{"error": err.Error()})
		s.record(c.UserContext(), name, statusError, start, 0)
		return err
	}
	if snap.FromCache {
		log.Warn("servedFromCache", map[string]interface{}{
			"source":   snap.Source,
			"loadedAt": snap.LoadedAt,
			"poolSize": len(snap.Candidates),
		})
	}

	query := req.Query()
	timeout := s.engineTimeout(name)
	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	defer cancel()

	result, err := runEngine(ctx, engine, &query, snap.Candidates, engines.Options{Timeout: timeout})
	if err != nil {
		if commonerrors.IsTimeout(err) {
			s.record(c.UserContext(), name, statusTimeout, start, 0)
			return commonerrors.NewEngineTimeoutError(name, err)
		}
		s.record(c.UserContext(), name, statusError, start, 0)
		return commonerrors.NewEngineExecutionError(name, err)
	}

	latency := time.Since(start)
	s.record(c.UserContext(), name, statusOK, start, result.Count)

	log.Debug("Match completed", map[string]interface{}{
		"count":     result.Count,
		"poolSize":  len(snap.Candidates),
		"latencyMs": latency.Milliseconds(),
	})

	return c.JSON(MatchResponse{
		Engine:     name,
		LatencyMs:  latency.Milliseconds(),
		Count:      result.Count,
		PoolSize:   len(snap.Candidates),
		Results:    result.Results,
		Statistics: result.Statistics,
	})
}

// runEngine runs Match under ctx. A deadline discards whatever the engine was building,
// and a panic becomes an error.
func runEngine(ctx context.Context, engine engines.MatchingEngine, query *models.Query, pool []models.Candidate, opts engines.Options) (*engines.Result, error) {
	type outcome struct {
		result *engines.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		res, err := engine.Match(ctx, query, pool, opts)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.result == nil {
			return nil, errors.New("engine returned no result")
		}
		if out.result.Results == nil {
			out.result.Results = []models.MatchResult{}
		}
		out.result.Count = len(out.result.Results)
		return out.result, nil
	}
}

func (s *Server) handleEngines(c *fiber.Ctx) error {
	statuses := s.engineStatuses(c.UserContext(), s.cfg.Gateway.EnginesTimeout)
	return c.JSON(fiber.Map{
		"default": s.registry.Default(),
		"engines": statuses,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	statuses := s.engineStatuses(c.UserContext(), s.cfg.Gateway.HealthTimeout)

	status := engines.StatusHealthy
	if s.pool.Size() == 0 {
		status = engines.StatusDegraded
	}
	defaultHealthy := false
	for _, st := range statuses {
		if st.Default {
			defaultHealthy = st.Healthy
		}
	}
	if !defaultHealthy {
		status = engines.StatusUnhealthy
	}

	code := fiber.StatusOK
	if status == engines.StatusUnhealthy {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"engines":  len(statuses),
		"poolSize": s.pool.Size(),
		"details":  statuses,
	})
}

// engineStatuses checks every engine concurrently, each bounded by timeoutMs.
func (s *Server) engineStatuses(parent context.Context, timeoutMs int) []EngineStatus {
	entries := s.registry.Entries()
	out := make([]EngineStatus, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry registry.Entry) {
			defer wg.Done()
			out[i] = s.checkEngine(parent, entry, time.Duration(timeoutMs)*time.Millisecond)
		}(i, entry)
	}
	wg.Wait()
	return out
}

func (s *Server) checkEngine(parent context.Context, entry registry.Entry, timeout time.Duration) EngineStatus {
	st := EngineStatus{
		Name:        entry.Engine.Name(),
		DisplayName: entry.Descriptor.DisplayName,
		Description: entry.Descriptor.Description,
		Policy:      entry.Descriptor.Policy,
		Default:     entry.Default,
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan engines.Health, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- engines.Health{Status: engines.StatusUnhealthy, Message: fmt.Sprintf("health check panic: %v", r)}
			}
		}()
		done <- entry.Engine.Health(ctx)
	}()

	var h engines.Health
	select {
	case h = <-done:
	case <-ctx.Done():
		h = engines.Health{Status: engines.StatusUnhealthy, Message: "health check timed out"}
	}

	st.Status = h.Status
	st.Healthy = h.Status == engines.StatusHealthy
	st.Message = h.Message
	st.Details = h.Details
	return st
}

func (s *Server) record(ctx context.Context, engine, status string, start time.Time, count int) {
	elapsed := time.Since(start)
	metrics.MatchRequests.WithLabelValues(engine, status).Inc()
	if status == statusOK {
		metrics.MatchDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
		metrics.MatchResultsReturned.WithLabelValues(engine).Observe(float64(count))
	}
	s.obs.RecordRequest(ctx, engine, status, elapsed)
}
