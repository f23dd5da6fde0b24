// errors.go - Error kinds shared by extraction, consensus and statement packages

package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtractionFailure means no text could be derived from a document
	ErrExtractionFailure = errors.New("no extractable text found in the document")
)

// ConfigurationError is a missing or invalid mandatory system setting
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// ServiceFailure is an external call that failed after exhausting its attempts.
// Causes holds one error per failed attempt, oldest first.
type ServiceFailure struct {
	Service  string
	Attempts int
	Causes   []error
}

func (e *ServiceFailure) Error() string {
	details := make([]string, 0, len(e.Causes))
	for _, cause := range e.Causes {
		details = append(details, cause.Error())
	}
	msg := fmt.Sprintf("%s failed after %d attempts", e.Service, e.Attempts)
	if len(details) > 0 {
		msg += " (" + strings.Join(details, "; ") + ")"
	}
	return msg
}

// Unwrap exposes the last cause so errors.Is can see context cancellation
func (e *ServiceFailure) Unwrap() error {
	if len(e.Causes) == 0 {
		return nil
	}
	return e.Causes[len(e.Causes)-1]
}

// ParseFailure is a model response that is not valid structured data
type ParseFailure struct {
	Raw string
	Err error
}

func (e *ParseFailure) Error() string {
	preview := e.Raw
	if len(preview) > 200 {
		preview = preview[:200] + "... (truncated)"
	}
	return fmt.Sprintf("failed to parse model response: %v (raw: %q)", e.Err, preview)
}

func (e *ParseFailure) Unwrap() error { return e.Err }
