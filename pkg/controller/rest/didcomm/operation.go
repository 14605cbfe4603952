/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"fmt"
	"net/http"

	"github.com/hyperledger/aries-didcomm-go/pkg/client/didcomm"
	didcommcmd "github.com/hyperledger/aries-didcomm-go/pkg/controller/command/didcomm"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller/rest"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

const (
	didcommOperationID = "/didcomm"
	packOperationID    = didcommOperationID + "/pack"

	// PackPlaintextPath is the path of the plaintext pack endpoint.
	PackPlaintextPath = packOperationID + "/plain"
	// PackSignedPath is the path of the signed pack endpoint.
	PackSignedPath = packOperationID + "/signed"
	// PackEncryptedPath is the path of the encrypted pack endpoint.
	PackEncryptedPath = packOperationID + "/encrypted"
	// UnpackPath is the path of the unpack endpoint.
	UnpackPath = didcommOperationID + "/unpack"
)

// provider contains dependencies for the DIDComm REST operations.
type provider interface {
	VDRegistry() vdrapi.Resolver
	SecretResolver() secret.Resolver
}

// Operation contains the DIDComm packing operations provided by controller REST API.
type Operation struct {
	handlers []rest.Handler
	command  *didcommcmd.Command
}

// New returns new DIDComm operations rest client instance.
func New(ctx provider, opts ...didcomm.Option) (*Operation, error) {
	cmd, err := didcommcmd.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create didcomm command : %w", err)
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(PackPlaintextPath, http.MethodPost, o.PackPlaintext),
		cmdutil.NewHTTPHandler(PackSignedPath, http.MethodPost, o.PackSigned),
		cmdutil.NewHTTPHandler(PackEncryptedPath, http.MethodPost, o.PackEncrypted),
		cmdutil.NewHTTPHandler(UnpackPath, http.MethodPost, o.Unpack),
	}
}

// PackPlaintext swagger:route POST /didcomm/pack/plain didcomm packPlaintext
//
// Packs a message as plaintext JSON.
//
// Responses:
//    default: genericError
//        200: packResponse
func (o *Operation) PackPlaintext(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PackPlaintext, rw, req)
}

// PackSigned swagger:route POST /didcomm/pack/signed didcomm packSigned
//
// Packs a message as JWS.
//
// Responses:
//    default: genericError
//        200: packResponse
func (o *Operation) PackSigned(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PackSigned, rw, req)
}

// PackEncrypted swagger:route POST /didcomm/pack/encrypted didcomm packEncrypted
//
// Packs a message as JWE, optionally wrapped in forward messages for the recipients' mediators.
//
// Responses:
//    default: genericError
//        200: packResponse
func (o *Operation) PackEncrypted(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PackEncrypted, rw, req)
}

// Unpack swagger:route POST /didcomm/unpack didcomm unpack
//
// Unpacks a plaintext, signed or encrypted message.
//
// Responses:
//    default: genericError
//        200: unpackResponse
func (o *Operation) Unpack(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.Unpack, rw, req)
}
