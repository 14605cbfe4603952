/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package secret

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
)

func TestSecret_JSON(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		format did.MaterialFormat
		value  string
	}{
		{
			name: "jwk",
			json: `{"id":"did:example:alice#key-x25519-1","type":"JsonWebKey2020",` +
				`"privateKeyJwk":{"crv":"X25519","d":"r-jK2cO3taR8LQnJB1_ikLBTAnOtShJOsHXRUWT-aZA",` +
				`"kty":"OKP","x":"avH0O2Y4tqLAq8y9zpianr8ajii5m4F_mICrzNlatXs"}}`,
			format: did.MaterialJWK,
			value: `{"crv":"X25519","d":"r-jK2cO3taR8LQnJB1_ikLBTAnOtShJOsHXRUWT-aZA",` +
				`"kty":"OKP","x":"avH0O2Y4tqLAq8y9zpianr8ajii5m4F_mICrzNlatXs"}`,
		},
		{
			name:   "base58",
			json:   `{"id":"did:example:bob#key-1","type":"Ed25519VerificationKey2018","privateKeyBase58":"abc"}`,
			format: did.MaterialBase58,
			value:  "abc",
		},
		{
			name:   "multibase",
			json:   `{"id":"did:example:bob#key-2","type":"X25519KeyAgreementKey2020","privateKeyMultibase":"zabc"}`,
			format: did.MaterialMultibase,
			value:  "zabc",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var s Secret

			require.NoError(t, json.Unmarshal([]byte(tc.json), &s))
			require.Equal(t, tc.format, s.Material.Format)
			require.Equal(t, tc.value, string(s.Material.Value))

			data, err := json.Marshal(&s)
			require.NoError(t, err)
			require.JSONEq(t, tc.json, string(data))
		})
	}
}

func TestSecret_JSONErrors(t *testing.T) {
	for _, data := range []string{
		`[`,
		`{"type":"JsonWebKey2020","privateKeyBase58":"abc"}`,
		`{"id":"did:example:bob#key-1","type":"JsonWebKey2020"}`,
		`{"id":"did:example:bob#key-1","privateKeyBase58":"abc","privateKeyMultibase":"zabc"}`,
	} {
		var s Secret

		require.Error(t, json.Unmarshal([]byte(data), &s), data)
	}

	_, err := json.Marshal(&Secret{ID: "kid"})
	require.Error(t, err)
}
