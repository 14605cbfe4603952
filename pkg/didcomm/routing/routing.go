/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package routing wraps packed messages in forward messages for the mediators declared in the DIDCommMessaging
// services of their recipients.
package routing

import (
	"context"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/anoncrypt"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

var logger = log.New("aries-framework/didcomm/routing")

// Options of PackRouting.
type Options struct {
	// EncAlgAnon encrypts every forward message. Defaults to A256CBC-HS512 with ECDH-ES+A256KW.
	EncAlgAnon packer.AnonCryptAlg
	// Headers are added to every forward message.
	Headers map[string]interface{}
}

// Router builds forward messages.
type Router struct {
	resolver vdrapi.Resolver
	anon     *anoncrypt.Packer
}

// New returns a Router.
func New(ctx packer.Provider) *Router {
	return &Router{resolver: ctx.VDRegistry(), anon: anoncrypt.New(ctx)}
}

// PackRouting wraps packed, a message packed for to, in one forward message per mediator hop. The result is
// nil when no recipient declares a mediator.
func (r *Router) PackRouting(ctx context.Context, to []string, packed string, opts *Options) (*Result, error) {
	tree, err := BuildServiceTree(ctx, r.resolver, to)
	if err != nil {
		return nil, err
	}

	alg := packer.A256CBCHS512ECDHESA256KW
	var headers map[string]interface{}

	if opts != nil {
		if opts.EncAlgAnon != "" {
			alg = opts.EncAlgAnon
		}

		headers = opts.Headers
	}

	w := &walker{router: r, tree: tree, alg: alg, headers: headers, result: &Result{}}

	for _, root := range tree.Roots {
		for _, child := range tree.Nodes[root].Children {
			idx, err := w.encrypt(ctx, child, noParent, packed)
			if err != nil {
				return nil, err
			}

			w.result.roots = append(w.result.roots, idx)
		}
	}

	if len(w.result.roots) == 0 {
		return nil, nil
	}

	logger.Debugf("routing: %d forward messages for %v", len(w.result.ForwardMessages()), to)

	return w.result, nil
}

type walker struct {
	router  *Router
	tree    *ServiceTree
	alg     packer.AnonCryptAlg
	headers map[string]interface{}
	result  *Result
}

// encrypt forwards packed through the hop node and then through every hop behind it.
func (w *walker) encrypt(ctx context.Context, node, parent int, packed string) (int, error) {
	hop := w.tree.Nodes[node]
	next := w.tree.Nodes[hop.Parent].URI

	to := append([]string(nil), hop.RoutingKeys...)
	if hop.NextDID != "" {
		to = append(to, hop.NextDID)
	}

	fwd, err := message.NewForward(next, to, packed, w.headers)
	if err != nil {
		return 0, err
	}

	msg, err := fwd.Message()
	if err != nil {
		return 0, err
	}

	encrypted, err := w.router.anon.Pack(ctx, msg, to, &packer.Options{EncAlgAnon: w.alg})
	if err != nil {
		return 0, err
	}

	idx := w.result.add(Node{
		FinalRecipient: hop.FinalRecipient,
		Next:           next,
		To:             to,
		Encrypted:      encrypted,
	}, parent)

	for _, child := range hop.Children {
		if _, err := w.encrypt(ctx, child, idx, encrypted.PackedMessage); err != nil {
			return 0, err
		}
	}

	return idx, nil
}
