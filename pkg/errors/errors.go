// Unified error handling for the Arduino emulator
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Addressing errors
	ErrPinRange    ErrorCode = "PIN_RANGE"
	ErrPinNotPWM   ErrorCode = "PIN_NOT_PWM"
	ErrAnalogRange ErrorCode = "ANALOG_RANGE"
	ErrValueRange  ErrorCode = "VALUE_RANGE"

	// Control-plane request errors
	ErrRequestParse ErrorCode = "REQUEST_PARSE"
	ErrRequestField ErrorCode = "REQUEST_FIELD"

	// Simulation state errors
	ErrSimRunning     ErrorCode = "SIM_RUNNING"
	ErrSimNotRunning  ErrorCode = "SIM_NOT_RUNNING"
	ErrSimFrozen      ErrorCode = "SIM_FROZEN"
	ErrSimStopTimeout ErrorCode = "SIM_STOP_TIMEOUT"

	// Sketch errors
	ErrSketchPanic  ErrorCode = "SKETCH_PANIC"
	ErrSketchScript ErrorCode = "SKETCH_SCRIPT"

	// Bootstrap errors
	ErrBoardLoad    ErrorCode = "BOARD_LOAD"
	ErrBoardInvalid ErrorCode = "BOARD_INVALID"
	ErrStartup      ErrorCode = "STARTUP"
)

// EmulatorError is the unified error type for the emulator
type EmulatorError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Pin is the addressed pin, or -1 when not applicable
	Pin int

	// File is the source document (board file, sketch script)
	File string

	// Line is the line number in File (if available)
	Line int

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *EmulatorError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("[%s] %s:%d: %s", e.Code, e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.File, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EmulatorError) Unwrap() error {
	return e.Err
}

// SetPin sets the addressed pin
func (e *EmulatorError) SetPin(pin int) *EmulatorError {
	e.Pin = pin
	return e
}

// SetFile sets the source document
func (e *EmulatorError) SetFile(file string) *EmulatorError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *EmulatorError) SetLine(line int) *EmulatorError {
	e.Line = line
	return e
}

// SetContext adds additional context
func (e *EmulatorError) SetContext(key string, value interface{}) *EmulatorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *EmulatorError {
	return &EmulatorError{
		Code:    code,
		Message: message,
		Pin:     -1,
		Err:     err,
	}
}

// New creates a new EmulatorError
func New(code ErrorCode, message string) *EmulatorError {
	return &EmulatorError{
		Code:    code,
		Message: message,
		Pin:     -1,
	}
}

// Addressing errors

// PinRangeError reports a pin index outside the board
func PinRangeError(pin, total int) *EmulatorError {
	return New(ErrPinRange, fmt.Sprintf("pin %d out of range [0, %d)", pin, total)).SetPin(pin)
}

// PinNotPWMError reports a PWM request on a pin without PWM support
func PinNotPWMError(pin int) *EmulatorError {
	return New(ErrPinNotPWM, fmt.Sprintf("Pin %d is not PWM capable", pin)).SetPin(pin)
}

// AnalogRangeError reports an analog channel outside the board's analog inputs
func AnalogRangeError(channel, count int) *EmulatorError {
	return New(ErrAnalogRange, fmt.Sprintf("Invalid analog pin A%d (board has %d analog inputs)", channel, count)).
		SetPin(channel)
}

// ValueRangeError reports a value outside its allowed interval
func ValueRangeError(what string, value, min, max int) *EmulatorError {
	return New(ErrValueRange, fmt.Sprintf("%s %d out of range [%d, %d]", what, value, min, max))
}

// Request errors

// RequestParseError reports an unparseable control-plane request body
func RequestParseError(err error) *EmulatorError {
	return Wrap(err, ErrRequestParse, fmt.Sprintf("Error: invalid request body: %v", err))
}

// RequestFieldError reports a missing or ill-typed request field
func RequestFieldError(field string) *EmulatorError {
	return New(ErrRequestField, fmt.Sprintf("Error: missing or invalid field '%s'", field))
}

// Simulation state errors

// SimRunningError reports a start request while the simulation runs
func SimRunningError() *EmulatorError {
	return New(ErrSimRunning, "Simulation is already running")
}

// SimNotRunningError reports a stop request while the simulation is stopped
func SimNotRunningError() *EmulatorError {
	return New(ErrSimNotRunning, "Simulation is not running")
}

// SimFrozenError reports a stop request after the watchdog declared a freeze
func SimFrozenError() *EmulatorError {
	return New(ErrSimFrozen, "Simulation froze; start to restart it")
}

// SimStopTimeoutError reports a stop that gave up waiting for loop() to return
func SimStopTimeoutError(err error) *EmulatorError {
	return Wrap(err, ErrSimStopTimeout, "loop() did not return before the stop deadline; worker abandoned")
}

// Sketch errors

// SketchPanicError converts a recovered sketch panic
func SketchPanicError(phase string, value interface{}) *EmulatorError {
	return New(ErrSketchPanic, fmt.Sprintf("%s() panicked: %v", phase, value)).SetContext("phase", phase)
}

// SketchScriptError reports a script sketch parse failure
func SketchScriptError(file string, line int, reason string) *EmulatorError {
	return New(ErrSketchScript, reason).SetFile(file).SetLine(line)
}

// Bootstrap errors

// BoardLoadError reports a board document that cannot be read or decoded
func BoardLoadError(file string, err error) *EmulatorError {
	return Wrap(err, ErrBoardLoad, fmt.Sprintf("cannot load board description: %v", err)).SetFile(file)
}

// BoardInvalidError reports a board document with inconsistent content
func BoardInvalidError(file, reason string) *EmulatorError {
	return New(ErrBoardInvalid, reason).SetFile(file)
}

// StartupError reports a fatal bootstrap failure
func StartupError(component string, err error) *EmulatorError {
	return Wrap(err, ErrStartup, fmt.Sprintf("failed to initialize %s: %v", component, err))
}

// RecoverPanic converts a recovered panic value to an error.
// It must be passed the result of recover() by the deferred caller.
func RecoverPanic(phase string, r interface{}) *EmulatorError {
	if r == nil {
		return nil
	}
	var err *EmulatorError
	switch x := r.(type) {
	case runtime.Error:
		err = SketchPanicError(phase, x.Error())
	case error:
		err = SketchPanicError(phase, x.Error())
		err.Err = x
	default:
		err = SketchPanicError(phase, x)
	}
	return err
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if e, ok := As(err); ok {
		return e.Code == code
	}
	return false
}

// As unwraps err until it finds an EmulatorError
func As(err error) (*EmulatorError, bool) {
	for err != nil {
		if e, ok := err.(*EmulatorError); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsAddressing checks if error is an invalid-addressing error
func IsAddressing(err error) bool {
	return Is(err, ErrPinRange) ||
		Is(err, ErrPinNotPWM) ||
		Is(err, ErrAnalogRange) ||
		Is(err, ErrValueRange)
}

// IsRequest checks if error is a malformed-request error
func IsRequest(err error) bool {
	return Is(err, ErrRequestParse) || Is(err, ErrRequestField)
}

// IsState checks if error is a simulation state conflict
func IsState(err error) bool {
	return Is(err, ErrSimRunning) ||
		Is(err, ErrSimNotRunning) ||
		Is(err, ErrSimFrozen)
}

// IsBootstrap checks if error must abort process startup
func IsBootstrap(err error) bool {
	return Is(err, ErrBoardLoad) ||
		Is(err, ErrBoardInvalid) ||
		Is(err, ErrSketchScript) ||
		Is(err, ErrStartup)
}
