/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signed

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/internal/didcommtest"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	"github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

type provider struct {
	resolver vdr.Resolver
	secrets  secret.Resolver
}

func (p *provider) VDRegistry() vdr.Resolver        { return p.resolver }
func (p *provider) SecretResolver() secret.Resolver { return p.secrets }

func testMessage() *message.Message {
	return &message.Message{
		ID:   "1234567890",
		Type: "http://example.com/protocols/lets_do_lunch/1.0/proposal",
		From: didcommtest.AliceDID,
		To:   []string{didcommtest.BobDID},
		Body: json.RawMessage(`{"messagespecificattribute":"and its value"}`),
	}
}

func TestSignedPackerSuccess(t *testing.T) {
	f := didcommtest.New(t)

	tests := []struct {
		name     string
		signFrom string
		wantKid  string
		wantAlg  jose.SigAlg
	}{
		{
			name:     "DID picks the first authentication key",
			signFrom: didcommtest.AliceDID,
			wantKid:  f.Alice.Kid("key-1"),
			wantAlg:  jose.EdDSA,
		},
		{
			name:     "P-256 kid",
			signFrom: f.Alice.Kid("key-2"),
			wantKid:  f.Alice.Kid("key-2"),
			wantAlg:  jose.ES256,
		},
		{
			name:     "secp256k1 kid",
			signFrom: f.Alice.Kid("key-3"),
			wantKid:  f.Alice.Kid("key-3"),
			wantAlg:  jose.ES256K,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := New(&provider{resolver: f.Resolver, secrets: f.Alice.SecretStore()})

			res, err := p.Pack(context.Background(), testMessage(), tc.signFrom, nil)
			require.NoError(t, err)
			require.Equal(t, tc.wantKid, res.SignFromKid)
			require.Empty(t, res.FromKid)

			jws, err := jose.ParseJWS([]byte(res.PackedMessage))
			require.NoError(t, err)
			require.Len(t, jws.Signatures, 1)

			sig := jws.Signatures[0]

			kid, ok := sig.KeyID()
			require.True(t, ok)
			require.Equal(t, tc.wantKid, kid)

			alg, ok := sig.Algorithm()
			require.True(t, ok)
			require.Equal(t, string(tc.wantAlg), alg)

			typ, ok := sig.ProtectedHeaders.Type()
			require.True(t, ok)
			require.Equal(t, jose.SignedMediaType, typ)

			require.NoError(t, sig.Verify(jws.Payload, f.Alice.Keys[tc.wantKid].Public()))

			msg, err := message.Parse(jws.Payload)
			require.NoError(t, err)
			require.Equal(t, "1234567890", msg.ID)
		})
	}
}

func TestSignedPackerFailure(t *testing.T) {
	f := didcommtest.New(t)

	tests := []struct {
		name     string
		signFrom string
		opts     *packer.Options
		wantKind didcommerr.Kind
	}{
		{
			name:     "missing signer",
			wantKind: didcommerr.UnsupportedParams,
		},
		{
			name:     "signer secret not found",
			signFrom: f.Bob.Kid("key-1"),
			wantKind: didcommerr.SecretNotFound,
		},
		{
			name:     "key agreement key cannot sign",
			signFrom: f.Alice.Kid("key-x25519-1"),
			wantKind: didcommerr.UnsupportedKey,
		},
		{
			name:     "from_prior issuer secret not found",
			signFrom: didcommtest.AliceDID,
			opts:     &packer.Options{FromPriorIssuerKid: f.Charlie.Kid("key-1")},
			wantKind: didcommerr.SecretNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := New(&provider{resolver: f.Resolver, secrets: f.Alice.SecretStore()})

			msg := testMessage()
			msg.FromPrior = &message.FromPrior{Iss: didcommtest.CharlieDID, Sub: didcommtest.AliceDID}

			if tc.opts == nil {
				msg.FromPrior = nil
			}

			_, err := p.Pack(context.Background(), msg, tc.signFrom, tc.opts)
			require.Error(t, err)

			kind, ok := didcommerr.KindOf(err)
			require.True(t, ok)
			require.Equal(t, tc.wantKind, kind)
		})
	}
}
