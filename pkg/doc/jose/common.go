/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/google/tink/go/subtle/random"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

// IANA registered JOSE headers (https://tools.ietf.org/html/rfc7515#section-4.1)
const (
	// HeaderAlgorithm identifies:
	// For JWS: the cryptographic algorithm used to secure the JWS.
	// For JWE: the cryptographic algorithm used to encrypt or determine the value of the CEK.
	HeaderAlgorithm = "alg" // string

	// HeaderEncryption identifies the JWE content encryption algorithm.
	HeaderEncryption = "enc" // string

	// HeaderKeyID is a hint:
	// For JWS: indicating which key was used to secure the JWS.
	// For JWE: which references the public key to which the JWE was encrypted.
	HeaderKeyID = "kid" // string

	// HeaderSenderKeyID references the (sender) public key used in the JWE key derivation/wrapping of the CEK.
	HeaderSenderKeyID = "skid" // string

	// HeaderType is the media type of the complete JWS or JWE.
	HeaderType = "typ" // string

	// HeaderContentType is the media type of the secured content.
	HeaderContentType = "cty" // string

	// HeaderEPK is the ephemeral public key used to derive the key encryption key.
	HeaderEPK = "epk" // JSON

	// HeaderAPU is the base64url encoded agreement PartyUInfo.
	HeaderAPU = "apu" // string

	// HeaderAPV is the base64url encoded agreement PartyVInfo.
	HeaderAPV = "apv" // string
)

// KeyAlg is a JWE key management algorithm.
type KeyAlg string

// Key management algorithms.
const (
	// ECDHESA256KW is anonymous key agreement with an ephemeral key, the CEK wrapped with AES-256 key wrap.
	ECDHESA256KW = KeyAlg("ECDH-ES+A256KW")
	// ECDH1PUA256KW is authenticated key agreement mixing the sender static key, the CEK wrapped with AES-256 key wrap.
	ECDH1PUA256KW = KeyAlg("ECDH-1PU+A256KW")
)

// EncAlg represents the JWE content encryption algorithm.
type EncAlg string

const (
	// A256CBCHS512 for A256CBC-HS512 (AES256-CBC+HMAC-SHA512) content encryption.
	A256CBCHS512 = EncAlg("A256CBC-HS512")
	// A256GCM for AES256GCM content encryption.
	A256GCM = EncAlg("A256GCM")
	// XC20P for XChacha20Poly1305 content encryption.
	XC20P = EncAlg("XC20P")
)

// SigAlg is a JWS signature algorithm.
type SigAlg string

// Signature algorithms.
const (
	EdDSA  = SigAlg("EdDSA")
	ES256  = SigAlg("ES256")
	ES384  = SigAlg("ES384")
	ES512  = SigAlg("ES512")
	ES256K = SigAlg("ES256K")
)

// Media types of DIDComm envelopes.
const (
	PlainMediaType     = "application/didcomm-plain+json"
	SignedMediaType    = "application/didcomm-signed+json"
	EncryptedMediaType = "application/didcomm-encrypted+json"
)

// Config carries the randomness sources used by the codec.
type Config struct {
	// Rand feeds ephemeral key generation.
	Rand io.Reader
	// RandomBytes produces content encryption keys and nonces.
	RandomBytes func(n uint32) []byte
}

// DefaultConfig returns a Config backed by crypto/rand and tink's random source.
func DefaultConfig() *Config {
	return &Config{
		Rand:        rand.Reader,
		RandomBytes: random.GetRandomBytes,
	}
}

func (c *Config) orDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}

	d := *c
	if d.Rand == nil {
		d.Rand = rand.Reader
	}

	if d.RandomBytes == nil {
		d.RandomBytes = random.GetRandomBytes
	}

	return &d
}

// Headers represents JOSE headers.
type Headers map[string]interface{}

// KeyID gets Key ID from JOSE headers.
func (h Headers) KeyID() (string, bool) {
	return h.stringValue(HeaderKeyID)
}

// SenderKeyID gets the sender Key ID from Jose headers.
func (h Headers) SenderKeyID() (string, bool) {
	return h.stringValue(HeaderSenderKeyID)
}

// Algorithm gets Algorithm from JOSE headers.
func (h Headers) Algorithm() (string, bool) {
	return h.stringValue(HeaderAlgorithm)
}

// Encryption gets content encryption algorithm from JOSE headers.
func (h Headers) Encryption() (string, bool) {
	return h.stringValue(HeaderEncryption)
}

// Type gets content encryption type from JOSE headers.
func (h Headers) Type() (string, bool) {
	return h.stringValue(HeaderType)
}

// ContentType gets the payload content type from JOSE headers.
func (h Headers) ContentType() (string, bool) {
	return h.stringValue(HeaderContentType)
}

// APU gets the decoded agreement PartyUInfo.
func (h Headers) APU() ([]byte, bool) {
	return h.b64Value(HeaderAPU)
}

// APV gets the decoded agreement PartyVInfo.
func (h Headers) APV() ([]byte, bool) {
	return h.b64Value(HeaderAPV)
}

// EPK gets the ephemeral public key.
func (h Headers) EPK() (*jwk.JWK, bool) {
	raw, ok := h[HeaderEPK]
	if !ok {
		return nil, false
	}

	var key jwk.JWK

	if err := convertMapToValue(raw, &key); err != nil {
		return nil, false
	}

	return &key, true
}

func (h Headers) stringValue(key string) (string, bool) {
	raw, ok := h[key]
	if !ok {
		return "", false
	}

	str, ok := raw.(string)

	return str, ok
}

func (h Headers) b64Value(key string) ([]byte, bool) {
	str, ok := h.stringValue(key)
	if !ok {
		return nil, false
	}

	b, err := base64.RawURLEncoding.DecodeString(str)
	if err != nil {
		return nil, false
	}

	return b, true
}

func convertMapToValue(vOriginToConvert, vDest interface{}) error {
	if key, ok := vOriginToConvert.(*jwk.JWK); ok {
		if dest, ok := vDest.(*jwk.JWK); ok {
			*dest = *key

			return nil
		}
	}

	bytes, err := json.Marshal(vOriginToConvert)
	if err != nil {
		return err
	}

	return json.Unmarshal(bytes, vDest)
}
