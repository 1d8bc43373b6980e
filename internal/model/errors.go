package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures for callers and the message channel.
type ErrorKind string

// Error kinds surfaced by the engine.
const (
	KindLocationUnresolved   ErrorKind = "LocationUnresolved"
	KindFileNotFound         ErrorKind = "FileNotFound"
	KindOutOfRange           ErrorKind = "OutOfRange"
	KindConfigurationMissing ErrorKind = "ConfigurationMissing"
	KindGenerationFailed     ErrorKind = "GenerationFailed"
	KindApplyFailed          ErrorKind = "ApplyFailed"
	KindCancelled            ErrorKind = "Cancelled"
)

// Sentinels usable with errors.Is against any *EngineError of the same kind.
var (
	ErrLocationUnresolved   = errors.New("location unresolved")
	ErrFileNotFound         = errors.New("file not found")
	ErrOutOfRange           = errors.New("line out of range")
	ErrConfigurationMissing = errors.New("oracle configuration missing")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrApplyFailed          = errors.New("apply failed")
	ErrCancelled            = errors.New("cancelled by caller")
)

var kindSentinels = map[ErrorKind]error{
	KindLocationUnresolved:   ErrLocationUnresolved,
	KindFileNotFound:         ErrFileNotFound,
	KindOutOfRange:           ErrOutOfRange,
	KindConfigurationMissing: ErrConfigurationMissing,
	KindGenerationFailed:     ErrGenerationFailed,
	KindApplyFailed:          ErrApplyFailed,
	KindCancelled:            ErrCancelled,
}

// EngineError is a typed failure carried from a component boundary to the caller.
type EngineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err as an EngineError of the given kind.
func NewError(kind ErrorKind, op string, err error) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: err}
}

// Errorf builds an EngineError with a formatted cause.
func Errorf(kind ErrorKind, op string, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}

	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *EngineError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]

	return ok && target == sentinel
}

// KindOf returns the kind of the first EngineError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}

	return ""
}
