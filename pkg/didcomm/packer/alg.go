/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package packer

import (
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
)

// AnonCryptAlg is a content encryption and key wrapping pair for anonymous encryption.
type AnonCryptAlg string

// AuthCryptAlg is a content encryption and key wrapping pair for authenticated encryption.
type AuthCryptAlg string

// SignAlg is the algorithm a JWS was signed with.
type SignAlg string

// Supported algorithm pairs.
const (
	A256CBCHS512ECDHESA256KW  = AnonCryptAlg("A256CBC-HS512+ECDH-ES+A256KW")
	XC20PECDHESA256KW         = AnonCryptAlg("XC20P+ECDH-ES+A256KW")
	A256GCMECDHESA256KW       = AnonCryptAlg("A256GCM+ECDH-ES+A256KW")
	A256CBCHS512ECDH1PUA256KW = AuthCryptAlg("A256CBC-HS512+ECDH-1PU+A256KW")
)

// Signature algorithms reported on unpack.
const (
	SignEd25519 = SignAlg("ed25519")
	SignES256   = SignAlg("es256")
	SignES256K  = SignAlg("es256k")
	SignES384   = SignAlg("es384")
	SignES512   = SignAlg("es512")
)

// JOSE returns the JWE key management and content encryption algorithms of a.
func (a AnonCryptAlg) JOSE() (jose.KeyAlg, jose.EncAlg, error) {
	switch a {
	case A256CBCHS512ECDHESA256KW:
		return jose.ECDHESA256KW, jose.A256CBCHS512, nil
	case XC20PECDHESA256KW:
		return jose.ECDHESA256KW, jose.XC20P, nil
	case A256GCMECDHESA256KW:
		return jose.ECDHESA256KW, jose.A256GCM, nil
	default:
		return "", "", didcommerr.New(didcommerr.UnsupportedCryptoAlgorithm, string(a))
	}
}

// JOSE returns the JWE key management and content encryption algorithms of a.
func (a AuthCryptAlg) JOSE() (jose.KeyAlg, jose.EncAlg, error) {
	if a == A256CBCHS512ECDH1PUA256KW {
		return jose.ECDH1PUA256KW, jose.A256CBCHS512, nil
	}

	return "", "", didcommerr.New(didcommerr.UnsupportedCryptoAlgorithm, string(a))
}

// AnonCryptAlgFor maps JWE alg and enc headers back to an anonymous encryption pair.
func AnonCryptAlgFor(keyAlg, encAlg string) (AnonCryptAlg, error) {
	if jose.KeyAlg(keyAlg) == jose.ECDHESA256KW {
		switch jose.EncAlg(encAlg) {
		case jose.A256CBCHS512:
			return A256CBCHS512ECDHESA256KW, nil
		case jose.XC20P:
			return XC20PECDHESA256KW, nil
		case jose.A256GCM:
			return A256GCMECDHESA256KW, nil
		}
	}

	return "", didcommerr.Newf(didcommerr.UnsupportedCryptoAlgorithm, "alg %s, enc %s", keyAlg, encAlg)
}

// AuthCryptAlgFor maps JWE alg and enc headers back to an authenticated encryption pair.
func AuthCryptAlgFor(keyAlg, encAlg string) (AuthCryptAlg, error) {
	if jose.KeyAlg(keyAlg) == jose.ECDH1PUA256KW && jose.EncAlg(encAlg) == jose.A256CBCHS512 {
		return A256CBCHS512ECDH1PUA256KW, nil
	}

	return "", didcommerr.Newf(didcommerr.UnsupportedCryptoAlgorithm, "alg %s, enc %s", keyAlg, encAlg)
}

// SignAlgFor maps a JWS alg header to the reported signature algorithm.
func SignAlgFor(alg string) (SignAlg, error) {
	switch jose.SigAlg(alg) {
	case jose.EdDSA:
		return SignEd25519, nil
	case jose.ES256:
		return SignES256, nil
	case jose.ES256K:
		return SignES256K, nil
	case jose.ES384:
		return SignES384, nil
	case jose.ES512:
		return SignES512, nil
	default:
		return "", didcommerr.New(didcommerr.UnsupportedCryptoAlgorithm, alg)
	}
}
