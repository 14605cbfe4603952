/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

// Type tells a caller whether a command failed on its input or while running.
type Type int32

// Error types.
const (
	// ValidationError means the request was rejected before the command ran.
	ValidationError Type = iota
	// ExecuteError means the command failed while running.
	ExecuteError
)

// Code identifies a command failure. Codes of a command package start at its Group.
type Code int32

// UnknownStatus is the code of failures nobody classified.
const UnknownStatus Code = 0

// Group is the first code of a command package. Groups are multiples of 1000.
type Group int32

// Command groups.
const (
	Common  Group = 1000
	DIDComm Group = 2000
)

// Error is a failed command.
type Error interface {
	error
	Code() Code
	Type() Type
}

type cmdError struct {
	cause   error
	code    Code
	errType Type
}

// NewValidationError wraps err as a rejected request.
func NewValidationError(code Code, err error) Error {
	return &cmdError{cause: err, code: code, errType: ValidationError}
}

// NewExecuteError wraps err as a failed execution.
func NewExecuteError(code Code, err error) Error {
	return &cmdError{cause: err, code: code, errType: ExecuteError}
}

func (e *cmdError) Error() string { return e.cause.Error() }
func (e *cmdError) Unwrap() error { return e.cause }
func (e *cmdError) Code() Code    { return e.code }
func (e *cmdError) Type() Type    { return e.errType }
