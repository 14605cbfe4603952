/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/hyperledger/aries-didcomm-go/pkg/client/didcomm"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller/command"
	didcommcmd "github.com/hyperledger/aries-didcomm-go/pkg/controller/command/didcomm"
	"github.com/hyperledger/aries-didcomm-go/pkg/controller/rest"
	didcommrest "github.com/hyperledger/aries-didcomm-go/pkg/controller/rest/didcomm"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

// Provider contains the dependencies every controller operation needs.
type Provider interface {
	VDRegistry() vdrapi.Resolver
	SecretResolver() secret.Resolver
}

type allOpts struct {
	maxUnpackDepth int
}

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithMaxUnpackDepth bounds the number of envelope layers the unpack operation peels.
func WithMaxUnpackDepth(depth int) Opt {
	return func(opts *allOpts) {
		opts.maxUnpackDepth = depth
	}
}

func clientOpts(opts []Opt) []didcomm.Option {
	o := &allOpts{}
	for _, opt := range opts {
		opt(o)
	}

	if o.maxUnpackDepth <= 0 {
		return nil
	}

	return []didcomm.Option{didcomm.WithMaxUnpackDepth(o.maxUnpackDepth)}
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(ctx Provider, opts ...Opt) ([]rest.Handler, error) {
	didcommOp, err := didcommrest.New(ctx, clientOpts(opts)...)
	if err != nil {
		return nil, fmt.Errorf("create didcomm rest command : %w", err)
	}

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, didcommOp.GetRESTHandlers()...)

	return allHandlers, nil
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(ctx Provider, opts ...Opt) ([]command.Handler, error) {
	didcommCmd, err := didcommcmd.New(ctx, clientOpts(opts)...)
	if err != nil {
		return nil, fmt.Errorf("create didcomm command : %w", err)
	}

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, didcommCmd.GetHandlers()...)

	return allHandlers, nil
}
