// retry.go - Error categorization and backoff for completion calls

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// RetryConfig defines the delay between failed completion attempts
type RetryConfig struct {
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults for retry behavior
var DefaultRetryConfig = RetryConfig{
	InitialDelay:    1 * time.Second,
	MaxDelay:        8 * time.Second,
	BackoffMultiple: 2.0,
}

// NoDelay disables waiting between attempts
var NoDelay = RetryConfig{}

// CompletionError represents a categorized provider error
type CompletionError struct {
	OriginalError error
	Category      string
	StatusCode    int
	Message       string
	Retryable     bool
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("[%s] %s (status: %d, retryable: %v)", e.Category, e.Message, e.StatusCode, e.Retryable)
}

func (e *CompletionError) Unwrap() error {
	return e.OriginalError
}

// categorizeError analyzes a provider error and determines retry strategy
func categorizeError(err error) *CompletionError {
	if err == nil {
		return nil
	}

	var categorized *CompletionError
	if errors.As(err, &categorized) {
		return categorized
	}

	compErr := &CompletionError{
		OriginalError: err,
		Category:      "unknown",
		Message:       err.Error(),
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		compErr.StatusCode = apiErr.Code
		categorizeStatus(compErr, apiErr.Code, apiErr.Message)
		return compErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		compErr.Category = "timeout"
		compErr.Message = "Request timeout - processing took too long"
		compErr.Retryable = true
		return compErr
	}

	if errors.Is(err, context.Canceled) {
		compErr.Category = "canceled"
		compErr.Message = "Request was canceled"
		return compErr
	}

	// Check error message for common patterns
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "429") || strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "resource exhausted"):
		compErr.Category = "rate_limit"
		compErr.Message = "Rate limit exceeded - too many requests"
		compErr.Retryable = true
	case strings.Contains(errMsg, "quota"):
		compErr.Category = "quota_exceeded"
		compErr.Message = "API quota exceeded - daily or monthly limit reached"
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		compErr.Category = "timeout"
		compErr.Message = "Request timeout"
		compErr.Retryable = true
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network"):
		compErr.Category = "network_error"
		compErr.Message = "Network connection error"
		compErr.Retryable = true
	}

	return compErr
}

func categorizeStatus(compErr *CompletionError, code int, message string) {
	switch code {
	case 400:
		compErr.Category = "bad_request"
		compErr.Message = "Invalid request format or parameters"
	case 401:
		compErr.Category = "unauthorized"
		compErr.Message = "Invalid API key or authentication failed"
	case 403:
		compErr.Category = "forbidden"
		compErr.Message = "API key lacks required permissions"
	case 404:
		compErr.Category = "not_found"
		compErr.Message = "Model not found or invalid endpoint"
	case 413:
		compErr.Category = "payload_too_large"
		compErr.Message = "Request size exceeds limit (shorten the document text)"
	case 429:
		compErr.Category = "rate_limit"
		compErr.Message = "Rate limit exceeded - too many requests"
		compErr.Retryable = true
	case 500, 502, 503, 504:
		compErr.Category = "server_error"
		compErr.Message = fmt.Sprintf("Provider server error (%d)", code)
		compErr.Retryable = true
	default:
		compErr.Category = "unknown_api_error"
		compErr.Message = fmt.Sprintf("API error: %s", message)
		compErr.Retryable = code >= 500
	}
}

// calculateBackoff computes exponential backoff delay
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * pow(config.BackoffMultiple, float64(attempt-1))

	// Cap at max delay
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	return time.Duration(delay)
}

// pow computes base^exp for floats (simple implementation)
func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

// sleepContext waits for d unless ctx is done first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled during retry wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
