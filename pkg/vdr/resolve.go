/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	diddoc "github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

// ResolveDoc resolves did with resolver. Failures that are not already DIDComm errors are reported as
// UnableToResolveDID.
func ResolveDoc(ctx context.Context, resolver vdrapi.Resolver, did string) (*diddoc.Doc, error) {
	doc, err := resolver.Resolve(ctx, did)
	if err != nil {
		if _, ok := didcommerr.KindOf(err); ok {
			return nil, err
		}

		return nil, didcommerr.Wrap(didcommerr.UnableToResolveDID, err, did)
	}

	if doc == nil {
		return nil, didcommerr.New(didcommerr.UnableToResolveDID, did)
	}

	return doc, nil
}

// ResolveDocs resolves dids concurrently. The returned documents are in the order of dids and the first
// failure cancels the remaining resolutions.
func ResolveDocs(ctx context.Context, resolver vdrapi.Resolver, dids []string) ([]*diddoc.Doc, error) {
	docs := make([]*diddoc.Doc, len(dids))

	g, gctx := errgroup.WithContext(ctx)

	for i, did := range dids {
		i, did := i, did

		g.Go(func() error {
			doc, err := ResolveDoc(gctx, resolver, did)
			if err != nil {
				return err
			}

			docs[i] = doc

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}
