/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleJWE = `{"protected":"eyJhbGciOiJFQ0RILUVTK0EyNTZLVyIsImVuYyI6IlhDMjBQIn0",` +
	`"recipients":[{"encrypted_key":"VGVzdEtleQ","header":{"kid":"did:example:bob#key-x25519-1"}}],` +
	`"iv":"VGVzdElW","ciphertext":"VGVzdENpcGhlclRleHQ","tag":"VGVzdFRhZw"}`

var errFailingMarshal = errors.New("i failed to marshal")

func TestJSONWebEncryption_Serialize(t *testing.T) {
	t.Run("Successfully serialize JWE", func(t *testing.T) {
		jwe := &JSONWebEncryption{
			ProtectedHeaders: Headers{HeaderAlgorithm: "ECDH-ES+A256KW", HeaderEncryption: "XC20P"},
			Recipients: []*Recipient{{
				EncryptedKey: "TestKey",
				Header:       &RecipientHeaders{KID: "did:example:bob#key-x25519-1"},
			}},
			IV:         "TestIV",
			Ciphertext: "TestCipherText",
			Tag:        "TestTag",
		}

		serialized, err := jwe.Serialize(json.Marshal)
		require.NoError(t, err)
		require.JSONEq(t, exampleJWE, serialized)
	})

	t.Run("original protected headers are kept", func(t *testing.T) {
		jwe, err := Deserialize(exampleJWE)
		require.NoError(t, err)

		jwe.ProtectedHeaders["extra"] = "ignored"

		serialized, err := jwe.Serialize(json.Marshal)
		require.NoError(t, err)
		require.JSONEq(t, exampleJWE, serialized)
	})

	t.Run("fail to serialize without ciphertext", func(t *testing.T) {
		jwe := &JSONWebEncryption{ProtectedHeaders: Headers{"alg": "x"}}

		_, err := jwe.Serialize(json.Marshal)
		require.Equal(t, errEmptyCiphertext, err)
	})

	t.Run("fail to marshal protected headers", func(t *testing.T) {
		jwe := &JSONWebEncryption{ProtectedHeaders: Headers{"alg": "x"}, Ciphertext: "c"}

		_, err := jwe.Serialize(func(interface{}) ([]byte, error) {
			return nil, errFailingMarshal
		})
		require.Equal(t, errFailingMarshal, err)
	})
}

func TestDeserialize(t *testing.T) {
	t.Run("Successfully deserialize JWE", func(t *testing.T) {
		jwe, err := Deserialize(exampleJWE)
		require.NoError(t, err)

		alg, ok := jwe.ProtectedHeaders.Algorithm()
		require.True(t, ok)
		require.Equal(t, "ECDH-ES+A256KW", alg)
		require.Equal(t, "TestKey", jwe.Recipients[0].EncryptedKey)
		require.Equal(t, []string{"did:example:bob#key-x25519-1"}, jwe.KeyIDs())
		require.Equal(t, "TestIV", jwe.IV)
		require.Equal(t, "TestCipherText", jwe.Ciphertext)
		require.Equal(t, "TestTag", jwe.Tag)
		require.Empty(t, jwe.AAD)
		require.Equal(t, jwe.OrigProtectedHders, jwe.authData())
	})

	tests := []struct {
		name   string
		jwe    string
		errMsg string
	}{
		{name: "not JSON", jwe: `{`, errMsg: "invalid JWE"},
		{name: "no protected", jwe: `{"recipients":[{}],"ciphertext":"YQ"}`, errMsg: errNoProtected.Error()},
		{name: "no ciphertext", jwe: `{"protected":"e30","recipients":[{}]}`, errMsg: errEmptyCiphertext.Error()},
		{name: "no recipients", jwe: `{"protected":"e30","ciphertext":"YQ"}`, errMsg: errNoRecipients.Error()},
		{name: "bad protected", jwe: `{"protected":"!!","recipients":[{}],"ciphertext":"YQ"}`,
			errMsg: "invalid JWE protected headers"},
		{name: "protected not JSON", jwe: `{"protected":"YQ","recipients":[{}],"ciphertext":"YQ"}`,
			errMsg: "invalid JWE protected headers"},
		{name: "bad encrypted key", jwe: `{"protected":"e30","recipients":[{"encrypted_key":"!!"}],"ciphertext":"YQ"}`,
			errMsg: "invalid JWE recipient 0 encrypted key"},
		{name: "bad iv", jwe: `{"protected":"e30","recipients":[{}],"ciphertext":"YQ","iv":"!!"}`,
			errMsg: "invalid JWE iv"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Deserialize(tc.jwe)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
