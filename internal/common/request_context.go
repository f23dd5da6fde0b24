// request_context.go - Request tracking and logging system

package common

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestContext tracks the request lifecycle with step timing
type RequestContext struct {
	RequestID           string
	Operation           string
	StartTime           time.Time
	Steps               []StepLog
	CurrentStep         string
	CurrentStepStart    time.Time
	CurrentSubSteps     []SubStepLog
	CurrentSubStep      string
	CurrentSubStepStart time.Time

	logger zerolog.Logger
}

// StepLog represents a single processing step
type StepLog struct {
	Name      string       `json:"name"`
	StartTime time.Time    `json:"start_time"`
	Duration  int64        `json:"duration_ms"`
	Status    string       `json:"status"` // "success", "failed", "skipped"
	Error     string       `json:"error,omitempty"`
	SubSteps  []SubStepLog `json:"sub_steps,omitempty"`
}

// SubStepLog represents a detailed sub-operation within a step
type SubStepLog struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Duration  int64     `json:"duration_ms"`
	Details   string    `json:"details,omitempty"`
}

type requestContextKey struct{}

// NewRequestContext creates a new request tracking context for one operation
func NewRequestContext(logger zerolog.Logger, operation string) *RequestContext {
	reqID := uuid.New().String()
	now := time.Now()

	rc := &RequestContext{
		RequestID: reqID,
		Operation: operation,
		StartTime: now,
		Steps:     []StepLog{},
		logger:    logger.With().Str("request_id", reqID).Str("operation", operation).Logger(),
	}
	rc.logger.Info().Msg("🚀 request received")
	return rc
}

// WithRequestContext attaches rc to ctx
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	ctx = context.WithValue(ctx, requestContextKey{}, rc)
	return WithLogger(ctx, rc.logger)
}

// FromContext returns the request context stored in ctx. When there is none a
// detached context is created so callers never need a nil check.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey{}).(*RequestContext); ok && rc != nil {
		return rc
	}
	return NewRequestContext(LoggerFromContext(ctx), "background")
}

// Logger returns the request scoped logger
func (rc *RequestContext) Logger() *zerolog.Logger {
	return &rc.logger
}

// StartStep begins tracking a new processing step
func (rc *RequestContext) StartStep(stepName string) {
	rc.CurrentStep = stepName
	rc.CurrentStepStart = time.Now()
	rc.logger.Info().Str("step", stepName).Msg("┌── step started")
}

// EndStep completes the current step and records timing
func (rc *RequestContext) EndStep(status string, err error) {
	duration := time.Since(rc.CurrentStepStart).Milliseconds()

	stepLog := StepLog{
		Name:      rc.CurrentStep,
		StartTime: rc.CurrentStepStart,
		Duration:  duration,
		Status:    status,
		SubSteps:  rc.CurrentSubSteps,
	}

	if err != nil {
		stepLog.Error = err.Error()
		rc.logger.Error().Err(err).Str("step", rc.CurrentStep).Int64("duration_ms", duration).Msg("❌ step failed")
	} else {
		rc.logger.Info().
			Str("step", rc.CurrentStep).
			Str("status", status).
			Int64("duration_ms", duration).
			Int("sub_steps", len(rc.CurrentSubSteps)).
			Msg("└── ✅ step finished")
	}

	rc.Steps = append(rc.Steps, stepLog)
	rc.CurrentStep = ""
	rc.CurrentSubSteps = []SubStepLog{}
}

// StartSubStep begins tracking a detailed sub-operation
func (rc *RequestContext) StartSubStep(subStepName string) {
	rc.CurrentSubStep = subStepName
	rc.CurrentSubStepStart = time.Now()
	rc.logger.Debug().Str("sub_step", subStepName).Msg("   ├─ started")
}

// EndSubStep completes the current sub-step and records timing
func (rc *RequestContext) EndSubStep(details string) {
	if rc.CurrentSubStep == "" {
		return
	}

	duration := time.Since(rc.CurrentSubStepStart).Milliseconds()
	rc.CurrentSubSteps = append(rc.CurrentSubSteps, SubStepLog{
		Name:      rc.CurrentSubStep,
		StartTime: rc.CurrentSubStepStart,
		Duration:  duration,
		Details:   details,
	})

	rc.logger.Debug().Str("sub_step", rc.CurrentSubStep).Int64("duration_ms", duration).Str("details", details).Msg("   └─ done")
	rc.CurrentSubStep = ""
}

// LogInfo logs info-level message with request ID
func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	rc.logger.Info().Msg(fmt.Sprintf(format, args...))
}

// LogWarning logs warning-level message with request ID
func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	rc.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// LogError logs error-level message with request ID
func (rc *RequestContext) LogError(format string, args ...interface{}) {
	rc.logger.Error().Msg(fmt.Sprintf(format, args...))
}

// GetSummary returns a final summary of the request
func (rc *RequestContext) GetSummary() map[string]interface{} {
	totalDuration := time.Since(rc.StartTime).Milliseconds()

	stepBreakdown := make(map[string]int64)
	for _, step := range rc.Steps {
		stepBreakdown[step.Name] = step.Duration
	}

	rc.logger.Info().Int64("total_duration_ms", totalDuration).Int("steps", len(rc.Steps)).Msg("🎯 request summary")

	return map[string]interface{}{
		"request_id":         rc.RequestID,
		"operation":          rc.Operation,
		"total_duration_ms":  totalDuration,
		"total_duration_sec": float64(totalDuration) / 1000,
		"step_breakdown":     stepBreakdown,
		"total_steps":        len(rc.Steps),
	}
}
