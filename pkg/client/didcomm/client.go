/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcomm is the entry point for packing and unpacking DIDComm v2 messages.
//
// A Client packs a message as plaintext, signed or encrypted envelope and can wrap the result in forward
// messages for the mediators of its recipients. Unpack undoes any nesting of those envelopes.
package didcomm

import (
	"context"
	"errors"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/anoncrypt"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/authcrypt"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/plain"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/signed"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/routing"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

// provider contains dependencies for the DIDComm client.
type provider interface {
	VDRegistry() vdrapi.Resolver
	SecretResolver() secret.Resolver
}

// Option configures the Client.
type Option func(*options)

type options struct {
	maxUnpackDepth int
}

// WithMaxUnpackDepth bounds the number of envelope layers Unpack peels. Defaults to packager.DefaultMaxDepth.
func WithMaxUnpackDepth(depth int) Option {
	return func(o *options) {
		o.maxUnpackDepth = depth
	}
}

// Client packs and unpacks DIDComm messages.
type Client struct {
	plain    *plain.Packer
	signed   *signed.Packer
	anon     *anoncrypt.Packer
	auth     *authcrypt.Packer
	router   *routing.Router
	packager *packager.Packager
}

// New returns new instance of the DIDComm client.
func New(ctx provider, opts ...Option) (*Client, error) {
	if ctx.VDRegistry() == nil {
		return nil, errors.New("didcomm client: DID resolver is required")
	}

	if ctx.SecretResolver() == nil {
		return nil, errors.New("didcomm client: secret resolver is required")
	}

	o := &options{maxUnpackDepth: packager.DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}

	return &Client{
		plain:    plain.New(ctx),
		signed:   signed.New(ctx),
		anon:     anoncrypt.New(ctx),
		auth:     authcrypt.New(ctx),
		router:   routing.New(ctx),
		packager: packager.New(ctx, packager.WithMaxDepth(o.maxUnpackDepth)),
	}, nil
}

// ForwardParams enable mediator routing of a packed message.
type ForwardParams struct {
	// Forward wraps the packed message in forward messages for the mediators declared by the recipients.
	Forward bool
	// ForwardHeaders are added to every forward message.
	ForwardHeaders map[string]interface{}
}

// PackPlaintextParams are the parameters of PackPlaintext.
type PackPlaintextParams struct {
	Message            *message.Message
	FromPriorIssuerKid string
	ForwardParams
}

// PackSignedParams are the parameters of PackSigned.
type PackSignedParams struct {
	Message *message.Message
	// SignFrom is a DID or kid. With a DID the first supported authentication method is used.
	SignFrom           string
	FromPriorIssuerKid string
	ForwardParams
}

// PackEncryptedParams are the parameters of PackEncrypted.
type PackEncryptedParams struct {
	Message *message.Message
	// To are DIDs or kids. Defaults to the to header of Message.
	To []string
	// From is a DID or kid. With EncAlgAuth set the message is authcrypted from it.
	From               string
	SignFrom           string
	FromPriorIssuerKid string
	EncAlgAuth         packer.AuthCryptAlg
	EncAlgAnon         packer.AnonCryptAlg
	ProtectSenderID    bool
	ForwardParams
}

// PlaintextResult is a packed plaintext message.
type PlaintextResult struct {
	PackedMessage      string
	FromPriorIssuerKid string
	Routing            *routing.Result
}

// SignedResult is a packed signed message.
type SignedResult struct {
	PackedMessage      string
	SignFromKid        string
	FromPriorIssuerKid string
	Routing            *routing.Result
}

// EncryptedResult is a packed encrypted message.
type EncryptedResult struct {
	PackedMessage      string
	ToKids             []string
	FromKid            string
	SignFromKid        string
	FromPriorIssuerKid string
	Routing            *routing.Result
}

// UnpackResult is an unpacked message and what its envelopes proved about it.
type UnpackResult struct {
	Message  *message.Message
	Metadata *packager.Metadata
}

// PackPlaintext packs a message as plaintext JSON.
func (c *Client) PackPlaintext(ctx context.Context, params *PackPlaintextParams) (*PlaintextResult, error) {
	if params == nil || params.Message == nil {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "message is required")
	}

	res, err := c.plain.Pack(ctx, params.Message, &packer.Options{FromPriorIssuerKid: params.FromPriorIssuerKid})
	if err != nil {
		return nil, err
	}

	route, err := c.route(ctx, params.Message.To, res.PackedMessage, "", &params.ForwardParams)
	if err != nil {
		return nil, err
	}

	return &PlaintextResult{
		PackedMessage:      res.PackedMessage,
		FromPriorIssuerKid: res.FromPriorIssuerKid,
		Routing:            route,
	}, nil
}

// PackSigned packs a message as JWS signed by SignFrom.
func (c *Client) PackSigned(ctx context.Context, params *PackSignedParams) (*SignedResult, error) {
	if params == nil || params.Message == nil {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "message is required")
	}

	res, err := c.signed.Pack(ctx, params.Message, params.SignFrom,
		&packer.Options{FromPriorIssuerKid: params.FromPriorIssuerKid})
	if err != nil {
		return nil, err
	}

	route, err := c.route(ctx, params.Message.To, res.PackedMessage, "", &params.ForwardParams)
	if err != nil {
		return nil, err
	}

	return &SignedResult{
		PackedMessage:      res.PackedMessage,
		SignFromKid:        res.SignFromKid,
		FromPriorIssuerKid: res.FromPriorIssuerKid,
		Routing:            route,
	}, nil
}

// PackEncrypted packs a message as JWE. It is authcrypted when both From and EncAlgAuth are set and
// anoncrypted with EncAlgAnon otherwise.
func (c *Client) PackEncrypted(ctx context.Context, params *PackEncryptedParams) (*EncryptedResult, error) {
	if params == nil || params.Message == nil {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "message is required")
	}

	to := params.To
	if len(to) == 0 {
		to = params.Message.To
	}

	if len(to) == 0 {
		return nil, didcommerr.New(didcommerr.MissingTo, params.Message.ID)
	}

	opts := &packer.Options{
		SignFrom:           params.SignFrom,
		FromPriorIssuerKid: params.FromPriorIssuerKid,
		EncAlgAnon:         params.EncAlgAnon,
		EncAlgAuth:         params.EncAlgAuth,
		ProtectSenderID:    params.ProtectSenderID,
	}

	var (
		res *packer.Result
		err error
	)

	switch {
	case params.From != "" && params.EncAlgAuth != "":
		res, err = c.auth.Pack(ctx, params.Message, params.From, to, opts)
	case params.EncAlgAnon != "":
		res, err = c.anon.Pack(ctx, params.Message, to, opts)
	default:
		return nil, didcommerr.New(didcommerr.UnsupportedParams,
			"encAlgAuth with from, or encAlgAnon, is required to encrypt")
	}

	if err != nil {
		return nil, err
	}

	route, err := c.route(ctx, to, res.PackedMessage, params.EncAlgAnon, &params.ForwardParams)
	if err != nil {
		return nil, err
	}

	return &EncryptedResult{
		PackedMessage:      res.PackedMessage,
		ToKids:             res.ToKids,
		FromKid:            res.FromKid,
		SignFromKid:        res.SignFromKid,
		FromPriorIssuerKid: res.FromPriorIssuerKid,
		Routing:            route,
	}, nil
}

func (c *Client) route(ctx context.Context, to []string, packed string, alg packer.AnonCryptAlg,
	params *ForwardParams) (*routing.Result, error) {
	if !params.Forward || len(to) == 0 {
		return nil, nil
	}

	return c.router.PackRouting(ctx, to, packed, &routing.Options{EncAlgAnon: alg, Headers: params.ForwardHeaders})
}

// Unpack peels every envelope of packed. Nil opts use packager.DefaultUnpackOptions.
func (c *Client) Unpack(ctx context.Context, packed string, opts *packager.UnpackOptions) (*UnpackResult, error) {
	msg, md, err := c.packager.Unpack(ctx, packed, opts)
	if err != nil {
		return nil, err
	}

	return &UnpackResult{Message: msg, Metadata: md}, nil
}
