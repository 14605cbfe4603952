/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

func TestHeaders_EPK(t *testing.T) {
	headers := Headers{}

	key, err := jwk.NewOKP("", jwk.X25519, make([]byte, 32), nil)
	require.NoError(t, err)

	jwkBytes, err := json.Marshal(key)
	require.NoError(t, err)

	var jwkMap map[string]interface{}

	require.NoError(t, json.Unmarshal(jwkBytes, &jwkMap))

	headers[HeaderEPK] = jwkMap

	parsedJWK, ok := headers.EPK()
	require.True(t, ok)
	requireSameKey(t, key, parsedJWK)

	headers[HeaderEPK] = key

	parsedJWK, ok = headers.EPK()
	require.True(t, ok)
	requireSameKey(t, key, parsedJWK)

	// epk is not present
	delete(headers, HeaderEPK)
	parsedJWK, ok = headers.EPK()
	require.False(t, ok)
	require.Nil(t, parsedJWK)

	// epk is not a map
	headers[HeaderEPK] = "not a map"
	parsedJWK, ok = headers.EPK()
	require.False(t, ok)
	require.Nil(t, parsedJWK)
}

func requireSameKey(t *testing.T, want, got *jwk.JWK) {
	t.Helper()

	require.Equal(t, want.Crv, got.Crv)
	require.Equal(t, want.Kty, got.Kty)

	wantRaw, err := want.PublicKeyBytes()
	require.NoError(t, err)

	gotRaw, err := got.PublicKeyBytes()
	require.NoError(t, err)
	require.Equal(t, wantRaw, gotRaw)
}

func TestHeaders_Values(t *testing.T) {
	headers := Headers{
		HeaderKeyID:       "kid",
		HeaderSenderKeyID: "skid",
		HeaderType:        EncryptedMediaType,
		HeaderAPU:         "c2tpZA",
		HeaderAPV:         "!!",
		HeaderContentType: 42,
	}

	kid, ok := headers.KeyID()
	require.True(t, ok)
	require.Equal(t, "kid", kid)

	skid, ok := headers.SenderKeyID()
	require.True(t, ok)
	require.Equal(t, "skid", skid)

	typ, ok := headers.Type()
	require.True(t, ok)
	require.Equal(t, EncryptedMediaType, typ)

	apu, ok := headers.APU()
	require.True(t, ok)
	require.Equal(t, []byte("skid"), apu)

	_, ok = headers.APV()
	require.False(t, ok)

	_, ok = headers.ContentType()
	require.False(t, ok)

	_, ok = headers.Algorithm()
	require.False(t, ok)
}

func TestConfig_orDefault(t *testing.T) {
	var cfg *Config

	d := cfg.orDefault()
	require.NotNil(t, d.Rand)
	require.Len(t, d.RandomBytes(12), 12)

	d = (&Config{RandomBytes: func(n uint32) []byte { return make([]byte, n) }}).orDefault()
	require.NotNil(t, d.Rand)
	require.Equal(t, make([]byte, 4), d.RandomBytes(4))
}
