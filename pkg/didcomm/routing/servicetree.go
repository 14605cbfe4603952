/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package routing

import (
	"context"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr"
)

const noParent = -1

// ServiceNode is one hop discovered from the DIDCommMessaging services of a recipient.
type ServiceNode struct {
	// FinalRecipient is the to entry the branch was discovered from.
	FinalRecipient string
	URI            string
	RoutingKeys    []string
	// NextDID is set when URI is a DID whose own services were followed.
	NextDID string

	Parent   int
	Children []int
}

// ServiceTree is the arena of hops towards every recipient. Roots holds one node per to entry, in order.
type ServiceTree struct {
	Nodes []ServiceNode
	Roots []int
}

// BuildServiceTree resolves the DIDCommMessaging services of every entry of to and follows endpoints whose uri is
// a DID. Recipients are discovered concurrently; the tree keeps the order of to.
func BuildServiceTree(ctx context.Context, resolver vdrapi.Resolver, to []string) (*ServiceTree, error) {
	branches := make([][]ServiceNode, len(to))

	g, gctx := errgroup.WithContext(ctx)

	for i, recipient := range to {
		i, recipient := i, recipient

		g.Go(func() error {
			nodes := []ServiceNode{{FinalRecipient: recipient, URI: recipient, Parent: noParent}}

			u, err := did.ParseDIDURL(recipient)
			if err != nil {
				return didcommerr.Wrap(didcommerr.InvalidDID, err, recipient)
			}

			nodes, err = discover(gctx, resolver, nodes, 0, u.DID.String(), []string{u.DID.String()})
			if err != nil {
				return err
			}

			branches[i] = nodes

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree := &ServiceTree{}

	for _, branch := range branches {
		offset := len(tree.Nodes)
		tree.Roots = append(tree.Roots, offset)

		for _, n := range branch {
			if n.Parent != noParent {
				n.Parent += offset
			}

			children := make([]int, 0, len(n.Children))
			for _, c := range n.Children {
				children = append(children, c+offset)
			}

			n.Children = children
			tree.Nodes = append(tree.Nodes, n)
		}
	}

	return tree, nil
}

// discover appends to nodes the hops declared by the DIDCommMessaging service of id, as children of parent.
// path holds the DIDs already followed on the way to parent.
func discover(ctx context.Context, resolver vdrapi.Resolver, nodes []ServiceNode, parent int, id string,
	path []string) ([]ServiceNode, error) {
	doc, err := vdr.ResolveDoc(ctx, resolver, id)
	if err != nil {
		return nil, err
	}

	svc, ok := did.LookupService(doc, did.DIDCommMessagingServiceType)
	if !ok {
		return nodes, nil
	}

	endpoints, err := svc.DIDCommEndpoints()
	if err != nil {
		return nil, err
	}

	for _, e := range endpoints {
		nextDID := ""
		if did.IsDID(e.URI) {
			nextDID = e.URI
		}

		if nextDID == "" && len(e.RoutingKeys) == 0 {
			logger.Debugf("endpoint %s of %s is delivered to directly", e.URI, id)

			continue
		}

		if nextDID != "" && slices.Contains(path, nextDID) {
			logger.Warnf("skipping endpoint %s of %s: routing loop", e.URI, id)

			continue
		}

		idx := len(nodes)
		nodes = append(nodes, ServiceNode{
			FinalRecipient: nodes[parent].FinalRecipient,
			URI:            e.URI,
			RoutingKeys:    e.RoutingKeys,
			NextDID:        nextDID,
			Parent:         parent,
		})
		nodes[parent].Children = append(nodes[parent].Children, idx)

		if nextDID == "" {
			continue
		}

		nodes, err = discover(ctx, resolver, nodes, idx, nextDID, append(slices.Clone(path), nextDID))
		if err != nil {
			return nil, err
		}
	}

	return nodes, nil
}
