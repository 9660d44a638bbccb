// Package errors provides standardized error handling for graphcfg.
// It includes error classification, standard error variables, and helper
// functions for consistent error wrapping across the configuration layer.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c360/graphcfg/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorSyntax represents malformed input detected during parsing:
	// bad path text, wrong argument arity for an expression rule.
	ErrorSyntax ErrorClass = iota
	// ErrorSemantic represents lookup and evaluation failures: unbound
	// variables, missing dict keys, failed numeric coercions.
	ErrorSemantic
	// ErrorCardinality represents wrong value counts: multiple values
	// produced for a non-repeated field, zero or many expansion results.
	ErrorCardinality
	// ErrorContract represents port contract violations detected at
	// graph build time, attributed to the offending port tag.
	ErrorContract
	// ErrorTransient represents temporary infrastructure errors (NATS
	// connectivity, KV unavailability) that may be retried.
	ErrorTransient
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorSyntax:
		return "syntax"
	case ErrorSemantic:
		return "semantic"
	case ErrorCardinality:
		return "cardinality"
	case ErrorContract:
		return "contract"
	case ErrorTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Template expansion errors
	ErrBadPath         = errors.New("malformed field path")
	ErrBadArity        = errors.New("wrong argument count")
	ErrUnknownOperator = errors.New("unknown operator")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrKeyNotFound     = errors.New("dict key not found")
	ErrFieldNotFound   = errors.New("field occurrence not found")
	ErrNotANumber      = errors.New("value is not a number")
	ErrMultipleValues  = errors.New("multiple values for non-repeated field")
	ErrRuleOrder       = errors.New("rule list not in subtree order")

	// Port contract errors
	ErrPortUnconnected = errors.New("required port not connected")
	ErrPortConflict    = errors.New("port connected as both stream and side packet")
	ErrTypeUnresolved  = errors.New("same-type reference never resolves")
	ErrTypeMismatch    = errors.New("payload type mismatch")
	ErrUnknownNodeType = errors.New("node type not registered")
	ErrDuplicateNode   = errors.New("duplicate node name")

	// Store and configuration errors
	ErrNoConnection     = errors.New("no connection available")
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template already exists")
	ErrVersionConflict  = errors.New("template was modified concurrently")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrMissingConfig    = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classOf returns the class recorded on err, if any
func classOf(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}

// IsSyntax checks if an error is a parse-time syntax error
func IsSyntax(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorSyntax
	}
	return errors.Is(err, ErrBadPath) ||
		errors.Is(err, ErrBadArity) ||
		errors.Is(err, ErrRuleOrder)
}

// IsSemantic checks if an error is an evaluation or lookup failure
func IsSemantic(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorSemantic
	}
	return errors.Is(err, ErrUnboundVariable) ||
		errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrNotANumber) ||
		errors.Is(err, ErrUnknownOperator)
}

// IsCardinality checks if an error is a value-count violation
func IsCardinality(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorCardinality
	}
	return errors.Is(err, ErrMultipleValues)
}

// IsContract checks if an error is a port contract violation
func IsContract(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorContract
	}
	return errors.Is(err, ErrPortUnconnected) ||
		errors.Is(err, ErrPortConflict) ||
		errors.Is(err, ErrTypeUnresolved) ||
		errors.Is(err, ErrTypeMismatch)
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := classOf(err); ok {
		return class == ErrorTransient
	}
	if errors.Is(err, ErrNoConnection) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	// Check error message for common transient patterns
	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"unavailable",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorSemantic
	}
	if class, ok := classOf(err); ok {
		return class
	}
	switch {
	case IsSyntax(err):
		return ErrorSyntax
	case IsCardinality(err):
		return ErrorCardinality
	case IsContract(err):
		return ErrorContract
	case IsTransient(err):
		return ErrorTransient
	default:
		return ErrorSemantic
	}
}

// newClassified creates a new classified error.
// Internal helper - use the Wrap* family instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapSyntax wraps an error as a syntax error with context
func WrapSyntax(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorSyntax, wrappedErr, component, method, wrappedErr.Error())
}

// WrapSemantic wraps an error as a semantic error with context
func WrapSemantic(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorSemantic, wrappedErr, component, method, wrappedErr.Error())
}

// WrapCardinality wraps an error as a cardinality error with context
func WrapCardinality(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorCardinality, wrappedErr, component, method, wrappedErr.Error())
}

// WrapContract wraps an error as a contract error with context
func WrapContract(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorContract, wrappedErr, component, method, wrappedErr.Error())
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// RetryConfig defines configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// ShouldRetry determines if an error should be retried based on config
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}
	return IsTransient(err)
}

// ToRetryConfig converts to the retry framework's Config type.
// MaxRetries counts additional attempts beyond the first, so the
// conversion adds 1; jitter is enabled for production use.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
	}
}
