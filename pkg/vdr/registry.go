/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	diddoc "github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

var logger = log.New("aries-framework/vdr")

// Option is a vdr instance option.
type Option func(opts *Registry)

// Registry vdr registry. It dispatches resolution to the first VDR accepting the DID method.
type Registry struct {
	vdr      []vdrapi.VDR
	cache    gcache.Cache
	cacheTTL time.Duration
}

// New returns a Registry over the VDRs given by WithVDR, in registration order.
func New(opts ...Option) *Registry {
	r := &Registry{}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the document of did, from the cache when enabled. Every failure is an UnableToResolveDID
// error except a malformed DID, which is InvalidDID.
func (r *Registry) Resolve(ctx context.Context, did string) (*diddoc.Doc, error) {
	didMethod, err := GetDidMethod(did)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.InvalidDID, err, did)
	}

	if r.cache != nil {
		if cached, cacheErr := r.cache.Get(did); cacheErr == nil {
			logger.Debugf("resolved %s from cache", did)

			return cached.(*diddoc.Doc), nil
		}
	}

	method, err := r.resolveVDR(didMethod)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.UnableToResolveDID, err, did)
	}

	doc, err := method.Read(ctx, did)
	if err != nil {
		if errors.Is(err, vdrapi.ErrNotFound) {
			return nil, didcommerr.Wrap(didcommerr.UnableToResolveDID, err, did)
		}

		return nil, didcommerr.Wrap(didcommerr.UnableToResolveDID, fmt.Errorf("did method read failed: %w", err), did)
	}

	if r.cache != nil {
		r.storeInCache(did, doc)
	}

	return doc, nil
}

func (r *Registry) storeInCache(did string, doc *diddoc.Doc) {
	var err error

	if r.cacheTTL > 0 {
		err = r.cache.SetWithExpire(did, doc, r.cacheTTL)
	} else {
		err = r.cache.Set(did, doc)
	}

	if err != nil {
		logger.Warnf("failed to cache did document %s: %s", did, err)
	}
}

// Close closes every VDR and empties the cache.
func (r *Registry) Close() error {
	for _, v := range r.vdr {
		if err := v.Close(); err != nil {
			return fmt.Errorf("close vdr: %w", err)
		}
	}

	if r.cache != nil {
		r.cache.Purge()
	}

	return nil
}

func (r *Registry) resolveVDR(method string) (vdrapi.VDR, error) {
	for _, v := range r.vdr {
		if v.Accept(method) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("no VDR accepts did method %s", method)
}

// WithVDR registers v. The first registered VDR accepting a method serves it.
func WithVDR(v vdrapi.VDR) Option {
	return func(r *Registry) {
		r.vdr = append(r.vdr, v)
	}
}

// WithCache keeps up to size resolved documents in an LRU cache. A ttl of zero keeps entries until evicted.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = gcache.New(size).LRU().Build()
		r.cacheTTL = ttl
	}
}

// GetDidMethod returns the method name of didID.
func GetDidMethod(didID string) (string, error) {
	parts := strings.SplitN(didID, ":", 3) //nolint:gomnd
	if len(parts) < 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("wrong format did input: %s", didID)
	}

	return parts[1], nil
}
