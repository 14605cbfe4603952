/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package command defines the transport independent controller commands: a command reads a JSON request,
// writes a JSON response and reports failures as an Error carrying a code and a type.
package command

import (
	"encoding/json"
	"io"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// Exec runs a command with the JSON request read from req, writing the JSON response to rw.
type Exec func(rw io.Writer, req io.Reader) Error

// Handler names a command so controllers can register it.
type Handler interface {
	// Name of the command group, e.g. "didcomm".
	Name() string
	// Method of the command within its group, e.g. "PackEncrypted".
	Method() string
	// Handle returns the function running the command.
	Handle() Exec
}

// WriteNillableResponse encodes v to w as JSON; a nil v is written as an empty object. Encoding failures are
// only logged since the response may already be partially written.
func WriteNillableResponse(w io.Writer, v interface{}, l log.Logger) {
	if v == nil {
		v = struct{}{}
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Errorf("failed to write command response: %s", err)
	}
}
