/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"
	"errors"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
)

// ErrNotFound is returned when a DID resolver does not find the DID.
var ErrNotFound = errors.New("DID not found")

// DIDCommV2ServiceType is the DID Communication V2 service type as per the following ref:
// https://identity.foundation/didcomm-messaging/spec/#did-document-service-endpoint.
const DIDCommV2ServiceType = did.DIDCommMessagingServiceType

// Resolver resolves a DID into its document.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*did.Doc, error)
}

// VDR verifiable data registry interface.
type VDR interface {
	Read(ctx context.Context, did string) (*did.Doc, error)
	Accept(method string) bool
	Close() error
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, did string) (*did.Doc, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, did string) (*did.Doc, error) {
	return f(ctx, did)
}
