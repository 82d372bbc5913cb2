package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents page navigation failures (unreachable, timed out)
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeExtraction represents extraction failures after all tiers were exhausted
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeNormalization represents price text that could not be parsed
	ErrorTypeNormalization ErrorType = "normalization"
	// ErrorTypeResolution represents batch items that do not map to a known hotel
	ErrorTypeResolution ErrorType = "resolution"
	// ErrorTypeStorage represents persistence-layer failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeRateLimit represents rate limiting by the target site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a pipeline-specific error
type ScrapeError struct {
	Type    ErrorType
	URL     string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.URL, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNavigation:
		return true
	case ErrorTypeStorage:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(url, message string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, url, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(url, message string) *ScrapeError {
	return New(ErrorTypeExtraction, url, message, nil)
}

// NewNormalization creates a new normalization error
func NewNormalization(raw string) *ScrapeError {
	return New(ErrorTypeNormalization, "", fmt.Sprintf("unparseable price text %q", raw), nil)
}

// NewResolution creates a new resolution error
func NewResolution(item, message string) *ScrapeError {
	return New(ErrorTypeResolution, item, message, nil)
}

// NewStorage creates a new storage error
func NewStorage(message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, "", message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, url, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
