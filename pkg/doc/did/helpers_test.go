/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
)

func mockDoc() *Doc {
	auth := VerificationMethod{
		ID:       "did:example:bob#key-1",
		Type:     Ed25519VerificationKey2018,
		Material: VerificationMaterial{Format: MaterialBase58, Value: []byte("ByHnpUCFb1vAfh9CFZ8ZkmUZguURW8nSw889hy6rD8L7")},
	}
	agreement := VerificationMethod{
		ID:       "did:example:bob#key-x25519-1",
		Type:     JSONWebKey2020,
		Material: VerificationMaterial{Format: MaterialJWK, Value: []byte(`{"kty":"OKP","crv":"X25519","x":"AA"}`)},
	}

	doc := BuildDoc("did:example:bob",
		WithAuthentication(auth),
		WithKeyAgreement(agreement),
		WithService(
			Service{ID: "did:example:bob#linked", Type: "LinkedDomains", ServiceEndpoint: NewURIEndpoint("https://bob")},
			Service{ID: "did:example:bob#didcomm-1", Type: DIDCommMessagingServiceType,
				ServiceEndpoint: NewURIsEndpoint("did:example:mediator1")},
			Service{ID: "did:example:bob#didcomm-2", Type: DIDCommMessagingServiceType,
				ServiceEndpoint: NewURIEndpoint("https://bob")},
		))

	// dangling reference
	doc.KeyAgreement = append(doc.KeyAgreement, "did:example:bob#missing")

	return doc
}

func TestLookupService(t *testing.T) {
	t.Run("first service of type", func(t *testing.T) {
		svc, ok := LookupService(mockDoc(), DIDCommMessagingServiceType)
		require.True(t, ok)
		require.Equal(t, "did:example:bob#didcomm-1", svc.ID)
	})

	t.Run("missing service", func(t *testing.T) {
		doc := mockDoc()
		doc.Service = nil

		svc, ok := LookupService(doc, DIDCommMessagingServiceType)
		require.False(t, ok)
		require.Nil(t, svc)
	})
}

func TestVerificationRelationships(t *testing.T) {
	doc := mockDoc()

	vm, ok := doc.VerificationMethodByID("did:example:bob#key-1")
	require.True(t, ok)
	require.Equal(t, Ed25519VerificationKey2018, vm.Type)

	_, ok = doc.VerificationMethodByID("did:example:bob#missing")
	require.False(t, ok)

	auth := doc.AuthenticationMethods()
	require.Len(t, auth, 1)
	require.Equal(t, "did:example:bob#key-1", auth[0].ID)

	agreement := doc.KeyAgreementMethods()
	require.Len(t, agreement, 1)
	require.Equal(t, "did:example:bob#key-x25519-1", agreement[0].ID)
}
