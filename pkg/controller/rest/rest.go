/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rest holds what the REST controller operations share: the handler contract and the error body
// written for failed commands.
package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/controller/command"
)

var logger = log.New("aries-framework/rest")

// Handler http handler for each controller API endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
}

// genericErrorBody is the error response body of every failed REST call.
//
// swagger:response genericError
type genericErrorBody struct {
	// in: body
	Code command.Code `json:"code"`
	// in: body
	Message string `json:"message"`
}

// Execute executes exec with the body of req and writes its error, if any, to rw.
func Execute(exec command.Exec, rw http.ResponseWriter, req *http.Request) {
	var body io.Reader
	if req != nil {
		body = req.Body
	}

	if err := exec(rw, body); err != nil {
		SendError(rw, err)
	}
}

// SendError sends err to rw: validation errors as BAD REQUEST, anything else as INTERNAL SERVER ERROR.
func SendError(rw http.ResponseWriter, err command.Error) {
	status := http.StatusInternalServerError
	if err.Type() == command.ValidationError {
		status = http.StatusBadRequest
	}

	SendHTTPStatusError(rw, status, err.Code(), err)
}

// SendHTTPStatusError sends status to rw with an error body of code and err.
func SendHTTPStatusError(rw http.ResponseWriter, status int, code command.Code, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	e := json.NewEncoder(rw).Encode(genericErrorBody{
		Code:    code,
		Message: err.Error(),
	})
	if e != nil {
		logger.Errorf("Unable to send error response, %s", e)
	}
}
