package driver

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result is a CUresult status code returned by every CUDA driver call.
// Only the codes this layer is expected to see are named; unknown codes
// still render numerically.
type Result int32

const (
	Success                   Result = 0
	ErrorInvalidValue         Result = 1
	ErrorOutOfMemory          Result = 2
	ErrorNotInitialized       Result = 3
	ErrorDeinitialized        Result = 4
	ErrorNoDevice             Result = 100
	ErrorInvalidDevice        Result = 101
	ErrorInvalidContext       Result = 201
	ErrorContextAlreadyInUse  Result = 216
	ErrorInvalidHandle        Result = 400
	ErrorNotFound             Result = 500
	ErrorNotReady             Result = 600
	ErrorLaunchFailed         Result = 719
	ErrorNotSupported         Result = 801
	ErrorPrimaryContextActive Result = 708
	ErrorContextIsDestroyed   Result = 709
	ErrorUnknown              Result = 999
)

var resultNames = map[Result]string{
	Success:                   "CUDA_SUCCESS",
	ErrorInvalidValue:         "CUDA_ERROR_INVALID_VALUE",
	ErrorOutOfMemory:          "CUDA_ERROR_OUT_OF_MEMORY",
	ErrorNotInitialized:       "CUDA_ERROR_NOT_INITIALIZED",
	ErrorDeinitialized:        "CUDA_ERROR_DEINITIALIZED",
	ErrorNoDevice:             "CUDA_ERROR_NO_DEVICE",
	ErrorInvalidDevice:        "CUDA_ERROR_INVALID_DEVICE",
	ErrorInvalidContext:       "CUDA_ERROR_INVALID_CONTEXT",
	ErrorContextAlreadyInUse:  "CUDA_ERROR_CONTEXT_ALREADY_IN_USE",
	ErrorInvalidHandle:        "CUDA_ERROR_INVALID_HANDLE",
	ErrorNotFound:             "CUDA_ERROR_NOT_FOUND",
	ErrorNotReady:             "CUDA_ERROR_NOT_READY",
	ErrorLaunchFailed:         "CUDA_ERROR_LAUNCH_FAILED",
	ErrorNotSupported:         "CUDA_ERROR_NOT_SUPPORTED",
	ErrorPrimaryContextActive: "CUDA_ERROR_PRIMARY_CONTEXT_ACTIVE",
	ErrorContextIsDestroyed:   "CUDA_ERROR_CONTEXT_IS_DESTROYED",
	ErrorUnknown:              "CUDA_ERROR_UNKNOWN",
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("CUDA_ERROR(%d)", int32(r))
}

// Error is a failed CUDA driver call: the cu* entry point and the CUresult
// it returned.
type Error struct {
	Call   string
	Result Result
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Call, e.Result, int32(e.Result))
}

// toError converts a CUresult into a Go error carrying the call name and a
// stack trace (see github.com/pkg/errors). Success converts to nil.
func toError(call string, r Result) error {
	if r == Success {
		return nil
	}
	return errors.WithStack(&Error{Call: call, Result: r})
}

// ResultOf extracts the CUresult from an error returned by this package.
// ok is false if err does not carry a driver Error.
func ResultOf(err error) (r Result, ok bool) {
	var drvErr *Error
	if errors.As(err, &drvErr) {
		return drvErr.Result, true
	}
	return Success, false
}
