package action

import (
	"context"
	"errors"

	"github.com/xkilldash9x/otto-cli/internal/desktop"
	"github.com/xkilldash9x/otto-cli/internal/screen"
)

// ErrorCode is a stable, machine-readable classification of a failure. It is
// what gets journaled; the human-readable message goes in the report.
type ErrorCode string

const (
	ErrCodeNone              ErrorCode = ""
	ErrCodeExecutionFailure  ErrorCode = "EXECUTION_FAILURE"
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeUnknownAction     ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeWindowNotFound    ErrorCode = "WINDOW_NOT_FOUND"
	ErrCodeCaptureFailed     ErrorCode = "CAPTURE_FAILED"
	ErrCodeUnsupported       ErrorCode = "UNSUPPORTED"
	ErrCodeFailSafe          ErrorCode = "FAILSAFE_TRIGGERED"
	ErrCodeCancelled         ErrorCode = "CANCELLED"
	ErrCodeExecutorPanic     ErrorCode = "EXECUTOR_PANIC"
)

// ClassifyError maps an error onto its ErrorCode.
func ClassifyError(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrCodeNone
	case errors.Is(err, desktop.ErrFailSafeTriggered):
		return ErrCodeFailSafe
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCancelled
	case errors.Is(err, desktop.ErrUnsupported):
		return ErrCodeUnsupported
	case errors.Is(err, ErrUnknownActionType):
		return ErrCodeUnknownAction
	case errors.Is(err, ErrInvalidParameters), errors.Is(err, desktop.ErrInvalidCombo), errors.Is(err, screen.ErrInvalidRegion):
		return ErrCodeInvalidParameters
	case errors.Is(err, screen.ErrDecode), errors.Is(err, screen.ErrNoImage):
		return ErrCodeCaptureFailed
	case errors.Is(err, desktop.ErrWindowNotFound):
		return ErrCodeWindowNotFound
	default:
		return ErrCodeExecutionFailure
	}
}
