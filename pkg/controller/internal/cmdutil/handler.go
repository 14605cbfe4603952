/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cmdutil holds the handler values controllers hand to routers and command registries.
package cmdutil

import (
	"net/http"

	"github.com/hyperledger/aries-didcomm-go/pkg/controller/command"
)

// HTTPHandler binds an http.HandlerFunc to a method and path.
type HTTPHandler struct {
	path, method string
	handle       http.HandlerFunc
}

// NewHTTPHandler returns an HTTPHandler serving method requests on path.
func NewHTTPHandler(path, method string, handle http.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{path: path, method: method, handle: handle}
}

// Path the handler is registered on.
func (h *HTTPHandler) Path() string {
	return h.path
}

// Method is the HTTP method served.
func (h *HTTPHandler) Method() string {
	return h.method
}

// Handle returns the handler function.
func (h *HTTPHandler) Handle() http.HandlerFunc {
	return h.handle
}

// CommandHandler binds a command.Exec to a command name and method.
type CommandHandler struct {
	name, method string
	exec         command.Exec
}

// NewCommandHandler returns a CommandHandler running exec as name.method.
func NewCommandHandler(name, method string, exec command.Exec) *CommandHandler {
	return &CommandHandler{name: name, method: method, exec: exec}
}

// Name of the command group.
func (c *CommandHandler) Name() string {
	return c.name
}

// Method of the command.
func (c *CommandHandler) Method() string {
	return c.method
}

// Handle returns the command function.
func (c *CommandHandler) Handle() command.Exec {
	return c.exec
}
