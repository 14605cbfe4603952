/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/client/didcomm"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller/command"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/routing"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/internal/logutil"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

var logger = log.New("aries-framework/command/didcomm")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.DIDComm)

	// PackErrorCode for pack failures.
	PackErrorCode

	// UnpackErrorCode for unpack failures.
	UnpackErrorCode
)

// constants for the DIDComm controller's methods.
const (
	// command name.
	CommandName = "didcomm"

	// command methods.
	PackPlaintextCommandMethod = "PackPlaintext"
	PackSignedCommandMethod    = "PackSigned"
	PackEncryptedCommandMethod = "PackEncrypted"
	UnpackCommandMethod        = "Unpack"

	// error messages.
	errEmptyMessage       = "message is mandatory"
	errEmptySignFrom      = "sign_from is mandatory"
	errEmptyPackedMessage = "packed_message is mandatory"

	// log constants.
	msgID = "messageID"
)

// provider contains dependencies for the DIDComm controller command operations.
type provider interface {
	VDRegistry() vdrapi.Resolver
	SecretResolver() secret.Resolver
}

// Command contains command operations provided by the DIDComm controller.
type Command struct {
	client *didcomm.Client
}

// New returns new DIDComm controller command instance.
func New(ctx provider, opts ...didcomm.Option) (*Command, error) {
	client, err := didcomm.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create didcomm client : %w", err)
	}

	return &Command{client: client}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, PackPlaintextCommandMethod, c.PackPlaintext),
		cmdutil.NewCommandHandler(CommandName, PackSignedCommandMethod, c.PackSigned),
		cmdutil.NewCommandHandler(CommandName, PackEncryptedCommandMethod, c.PackEncrypted),
		cmdutil.NewCommandHandler(CommandName, UnpackCommandMethod, c.Unpack),
	}
}

// PackPlaintext packs a message as plaintext JSON.
func (c *Command) PackPlaintext(rw io.Writer, req io.Reader) command.Error {
	var request PackPlaintextArgs

	msg, cmdErr := decodeMessage(req, &request, &request.Message, PackPlaintextCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.PackPlaintext(context.Background(), &didcomm.PackPlaintextParams{
		Message:            msg,
		FromPriorIssuerKid: request.FromPriorIssuerKid,
		ForwardParams:      forwardParams(&request.ForwardRequest),
	})
	if err != nil {
		return packError(PackPlaintextCommandMethod, msg.ID, err)
	}

	command.WriteNillableResponse(rw, &PackResponse{
		PackedMessage:      res.PackedMessage,
		FromPriorIssuerKid: res.FromPriorIssuerKid,
		Forwards:           forwards(res.Routing),
	}, logger)

	logutil.LogDebug(logger, CommandName, PackPlaintextCommandMethod, "success",
		logutil.CreateKeyValueString(msgID, msg.ID))

	return nil
}

// PackSigned packs a message as JWS.
func (c *Command) PackSigned(rw io.Writer, req io.Reader) command.Error {
	var request PackSignedArgs

	msg, cmdErr := decodeMessage(req, &request, &request.Message, PackSignedCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	if request.SignFrom == "" {
		logutil.LogDebug(logger, CommandName, PackSignedCommandMethod, errEmptySignFrom)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptySignFrom))
	}

	res, err := c.client.PackSigned(context.Background(), &didcomm.PackSignedParams{
		Message:            msg,
		SignFrom:           request.SignFrom,
		FromPriorIssuerKid: request.FromPriorIssuerKid,
		ForwardParams:      forwardParams(&request.ForwardRequest),
	})
	if err != nil {
		return packError(PackSignedCommandMethod, msg.ID, err)
	}

	command.WriteNillableResponse(rw, &PackResponse{
		PackedMessage:      res.PackedMessage,
		SignFromKid:        res.SignFromKid,
		FromPriorIssuerKid: res.FromPriorIssuerKid,
		Forwards:           forwards(res.Routing),
	}, logger)

	logutil.LogDebug(logger, CommandName, PackSignedCommandMethod, "success",
		logutil.CreateKeyValueString(msgID, msg.ID))

	return nil
}

// PackEncrypted packs a message as JWE.
func (c *Command) PackEncrypted(rw io.Writer, req io.Reader) command.Error {
	var request PackEncryptedArgs

	msg, cmdErr := decodeMessage(req, &request, &request.Message, PackEncryptedCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := c.client.PackEncrypted(context.Background(), &didcomm.PackEncryptedParams{
		Message:            msg,
		To:                 request.To,
		From:               request.From,
		SignFrom:           request.SignFrom,
		FromPriorIssuerKid: request.FromPriorIssuerKid,
		EncAlgAuth:         packer.AuthCryptAlg(request.EncAlgAuth),
		EncAlgAnon:         packer.AnonCryptAlg(request.EncAlgAnon),
		ProtectSenderID:    request.ProtectSenderID,
		ForwardParams:      forwardParams(&request.ForwardRequest),
	})
	if err != nil {
		return packError(PackEncryptedCommandMethod, msg.ID, err)
	}

	command.WriteNillableResponse(rw, &PackResponse{
		PackedMessage:      res.PackedMessage,
		ToKids:             res.ToKids,
		FromKid:            res.FromKid,
		SignFromKid:        res.SignFromKid,
		FromPriorIssuerKid: res.FromPriorIssuerKid,
		Forwards:           forwards(res.Routing),
	}, logger)

	logutil.LogDebug(logger, CommandName, PackEncryptedCommandMethod, "success",
		logutil.CreateKeyValueString(msgID, msg.ID))

	return nil
}

// Unpack peels every envelope of a packed message.
func (c *Command) Unpack(rw io.Writer, req io.Reader) command.Error {
	var request UnpackArgs

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, UnpackCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	packed, err := packedMessage(request.PackedMessage)
	if err != nil {
		logutil.LogDebug(logger, CommandName, UnpackCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	opts := packager.DefaultUnpackOptions()
	opts.ExpectDecryptByAllKeys = request.ExpectDecryptByAllKeys

	if request.UnwrapReWrappingForward != nil {
		opts.UnwrapReWrappingForward = *request.UnwrapReWrappingForward
	}

	res, err := c.client.Unpack(context.Background(), packed, opts)
	if err != nil {
		logutil.LogError(logger, CommandName, UnpackCommandMethod, err.Error())
		return command.NewExecuteError(UnpackErrorCode, err)
	}

	msgBytes, err := res.Message.JSON()
	if err != nil {
		logutil.LogError(logger, CommandName, UnpackCommandMethod, err.Error())
		return command.NewExecuteError(UnpackErrorCode, err)
	}

	command.WriteNillableResponse(rw, &UnpackResponse{Message: msgBytes, Metadata: res.Metadata}, logger)

	logutil.LogDebug(logger, CommandName, UnpackCommandMethod, "success",
		logutil.CreateKeyValueString(msgID, res.Message.ID))

	return nil
}

func decodeMessage(req io.Reader, request interface{}, raw *json.RawMessage,
	method string) (*message.Message, command.Error) {
	if err := json.NewDecoder(req).Decode(request); err != nil {
		logutil.LogInfo(logger, CommandName, method, err.Error())
		return nil, command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if len(*raw) == 0 {
		logutil.LogDebug(logger, CommandName, method, errEmptyMessage)
		return nil, command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyMessage))
	}

	msg, err := message.Parse(*raw)
	if err != nil {
		logutil.LogInfo(logger, CommandName, method, err.Error())
		return nil, command.NewValidationError(InvalidRequestErrorCode, err)
	}

	return msg, nil
}

// packError reports caller mistakes as validation errors and everything else as execution failures.
func packError(method, id string, err error) command.Error {
	logutil.LogError(logger, CommandName, method, err.Error(), logutil.CreateKeyValueString(msgID, id))

	kind, _ := didcommerr.KindOf(err)

	switch kind { //nolint:exhaustive
	case didcommerr.UnsupportedParams, didcommerr.UnsupportedCryptoAlgorithm, didcommerr.MissingTo,
		didcommerr.InvalidDID, didcommerr.MalformedMessage:
		return command.NewValidationError(InvalidRequestErrorCode, err)
	default:
		return command.NewExecuteError(PackErrorCode, err)
	}
}

// packedMessage accepts a packed message either inline as a JSON object or as a JSON string.
func packedMessage(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New(errEmptyPackedMessage)
	}

	if raw[0] != '"' {
		return string(raw), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("packed_message : %w", err)
	}

	if s == "" {
		return "", errors.New(errEmptyPackedMessage)
	}

	return s, nil
}

func forwardParams(r *ForwardRequest) didcomm.ForwardParams {
	return didcomm.ForwardParams{Forward: r.Forward, ForwardHeaders: r.ForwardHeaders}
}

func forwards(res *routing.Result) []ForwardResponse {
	if res == nil {
		return nil
	}

	fwds := res.ForwardMessages()
	result := make([]ForwardResponse, 0, len(fwds))

	for _, f := range fwds {
		result = append(result, ForwardResponse{
			FinalRecipient: f.FinalRecipient,
			RoutedBy:       f.RoutedBy,
			PackedMessage:  f.Message.PackedMessage,
			ToKids:         f.Message.ToKids,
		})
	}

	return result
}
