/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package memvdr provides a VDR serving a fixed set of DID documents from memory.
package memvdr

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

// VDR is an in-memory DID document store.
type VDR struct {
	mutex   sync.RWMutex
	docs    map[string]*did.Doc
	methods map[string]struct{}
}

// New returns a VDR holding docs. It accepts the methods of the documents it holds.
func New(docs ...*did.Doc) (*VDR, error) {
	v := &VDR{docs: map[string]*did.Doc{}, methods: map[string]struct{}{}}

	for _, doc := range docs {
		if err := v.Store(doc); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Store adds or replaces doc.
func (v *VDR) Store(doc *did.Doc) error {
	parsed, err := did.Parse(doc.ID)
	if err != nil {
		return fmt.Errorf("memvdr store: %w", err)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.docs[doc.ID] = doc
	v.methods[parsed.Method] = struct{}{}

	return nil
}

// Read returns the stored document for didID.
func (v *VDR) Read(_ context.Context, didID string) (*did.Doc, error) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	doc, ok := v.docs[didID]
	if !ok {
		return nil, fmt.Errorf("memvdr read %s: %w", didID, vdrapi.ErrNotFound)
	}

	return doc, nil
}

// Resolve implements vdrapi.Resolver without method dispatch.
func (v *VDR) Resolve(ctx context.Context, didID string) (*did.Doc, error) {
	return v.Read(ctx, didID)
}

// Accept reports whether a stored document uses method.
func (v *VDR) Accept(method string) bool {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	_, ok := v.methods[method]

	return ok
}

// Close frees resources being maintained by VDR.
func (v *VDR) Close() error {
	return nil
}
