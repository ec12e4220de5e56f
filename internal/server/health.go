package server

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// HealthEvent is the New Relic custom event type of the periodic probe.
const HealthEvent = "ComercialHealthCheck"

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// Healthy reports whether the dependency answered.
func (c CheckResult) Healthy() bool {
	return c.Status == "healthy"
}

// Check probes the enabled dependencies once. Database pools are checked
// one by one and reported as "database:<name>".
func (s *Server) Check(ctx context.Context) map[string]CheckResult {
	results := make(map[string]CheckResult)

	if s.DB != nil && s.checkEnabled("database") {
		start := time.Now()
		failures := s.DB.Ping(ctx)
		elapsed := time.Since(start).String()
		for _, name := range s.DB.Names() {
			res := CheckResult{Status: "healthy", ResponseTime: elapsed}
			if err, ok := failures[name]; ok {
				res = CheckResult{Status: "unhealthy", ResponseTime: elapsed, Error: err.Error()}
			}
			results["database:"+name] = res
		}
	}

	if s.Redis != nil && s.checkEnabled("redis") {
		start := time.Now()
		res := CheckResult{Status: "healthy"}
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			res = CheckResult{Status: "unhealthy", Error: err.Error()}
		}
		res.ResponseTime = time.Since(start).String()
		results["redis"] = res
	}

	return results
}

func (s *Server) checkEnabled(name string) bool {
	obs := s.Config.Observability
	if obs == nil || len(obs.HealthChecks.Checks) == 0 {
		return true
	}
	for _, c := range obs.HealthChecks.Checks {
		if c == name {
			return true
		}
	}
	return false
}

// startHealthChecks schedules Check on the configured interval, logging
// failures and recording the outcome as a New Relic event.
func (s *Server) startHealthChecks() {
	obs := s.Config.Observability
	if obs == nil || !obs.HealthChecks.Enabled {
		return
	}

	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := "@every " + obs.HealthChecks.Interval.String()
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), obs.HealthChecks.Timeout)
		defer cancel()
		s.recordHealth(s.Check(ctx))
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("spec", spec).Msg("failed to schedule health checks")
		s.cron = nil
		return
	}
	s.cron.Start()
}

func (s *Server) recordHealth(results map[string]CheckResult) {
	healthy := true
	params := map[string]interface{}{"surface": string(s.Surface)}
	for name, res := range results {
		params[name] = res.Status
		if !res.Healthy() {
			healthy = false
			s.Logger.Warn().Str("check", name).Str("error", res.Error).Msg("health check failed")
		}
	}
	params["healthy"] = healthy
	s.LoggerService.RecordEvent(HealthEvent, params)
}
