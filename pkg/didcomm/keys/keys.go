/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keys normalizes DID verification methods and local secrets into JWK backed keys.
package keys

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/fingerprint"
)

const (
	rawKeySize  = 32
	pairKeySize = 2 * rawKeySize
)

// Key is a public or private key referenced by a DID URL.
type Key struct {
	ID    string
	Curve string
	JWK   *jwk.JWK
}

// IsPrivate reports whether the key carries private material.
func (k *Key) IsPrivate() bool {
	return k.JWK.IsPrivate()
}

// Public returns the key without private material.
func (k *Key) Public() *Key {
	return &Key{ID: k.ID, Curve: k.Curve, JWK: k.JWK.Public()}
}

// agreementCurves can be used with ECDH-ES and ECDH-1PU.
var agreementCurves = []string{jwk.X25519, jwk.P256, jwk.P384, jwk.P521} //nolint:gochecknoglobals

// signingCurves can be used for JWS and JWT signatures.
var signingCurves = []string{jwk.Ed25519, jwk.P256, jwk.P384, jwk.P521, jwk.Secp256k1} //nolint:gochecknoglobals

// IsAgreementCurve reports whether curve can be used for key agreement.
func IsAgreementCurve(curve string) bool {
	return slices.Contains(agreementCurves, curve)
}

// IsSigningCurve reports whether curve can be used for signatures.
func IsSigningCurve(curve string) bool {
	return slices.Contains(signingCurves, curve)
}

// FromSecret converts a local secret into a private key.
func FromSecret(s *secret.Secret) (*Key, error) {
	switch s.Type {
	case did.JSONWebKey2020, did.EcdsaSecp256k1VerificationKey:
		if s.Material.Format != did.MaterialJWK {
			return nil, didcommerr.New(didcommerr.InvalidSecretFormatForMethodType, s.ID)
		}

		return fromJWK(s.ID, s.Material.Value, true)
	case did.X25519KeyAgreementKey2019, did.Ed25519VerificationKey2018:
		if s.Material.Format != did.MaterialBase58 {
			return nil, didcommerr.New(didcommerr.InvalidSecretFormatForMethodType, s.ID)
		}

		return fromRaw(s.ID, categoryCurve(s.Type), base58.Decode(string(s.Material.Value)), true)
	case did.X25519KeyAgreementKey2020, did.Ed25519VerificationKey2020:
		if s.Material.Format != did.MaterialMultibase {
			return nil, didcommerr.New(didcommerr.InvalidSecretFormatForMethodType, s.ID)
		}

		return fromMultibase(s.ID, string(s.Material.Value), true)
	default:
		return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: secret type '%s'", s.ID, s.Type)
	}
}

// FromVerificationMethod converts a DID document verification method into a public key.
func FromVerificationMethod(vm *did.VerificationMethod) (*Key, error) {
	switch vm.Type {
	case did.JSONWebKey2020, did.EcdsaSecp256k1VerificationKey:
		if vm.Material.Format != did.MaterialJWK {
			return nil, didcommerr.New(didcommerr.InvalidSecretFormatForMethodType, vm.ID)
		}

		return fromJWK(vm.ID, vm.Material.Value, false)
	case did.X25519KeyAgreementKey2019, did.Ed25519VerificationKey2018:
		if vm.Material.Format != did.MaterialBase58 {
			return nil, didcommerr.New(didcommerr.InvalidSecretFormatForMethodType, vm.ID)
		}

		return fromRaw(vm.ID, categoryCurve(vm.Type), base58.Decode(string(vm.Material.Value)), false)
	case did.X25519KeyAgreementKey2020, did.Ed25519VerificationKey2020:
		if vm.Material.Format != did.MaterialMultibase {
			return nil, didcommerr.New(didcommerr.InvalidSecretFormatForMethodType, vm.ID)
		}

		return fromMultibase(vm.ID, string(vm.Material.Value), false)
	default:
		return nil, didcommerr.Newf(didcommerr.UnsupportedVerificationMethodType, "%s: '%s'", vm.ID, vm.Type)
	}
}

// categoryCurve is the curve implied by a 2018/2019 verification method type.
func categoryCurve(vmType string) string {
	if vmType == did.X25519KeyAgreementKey2019 {
		return jwk.X25519
	}

	return jwk.Ed25519
}

func fromJWK(id string, data []byte, private bool) (*Key, error) {
	key, err := jwk.Parse(data)
	if err != nil {
		if errors.Is(err, jwk.ErrInvalidKey) {
			return nil, didcommerr.Wrap(didcommerr.UnsupportedKey, err, id)
		}

		return nil, didcommerr.Wrap(didcommerr.InvalidBase64URLKey, err, id)
	}

	if private && !key.IsPrivate() {
		return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: secret has no private material", id)
	}

	if !private {
		key = key.Public()
	}

	key.KeyID = id

	return &Key{ID: id, Curve: key.Crv, JWK: key}, nil
}

func fromMultibase(id, value string, private bool) (*Key, error) {
	code, raw, err := fingerprint.DecodeMultibase(value)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.UnsupportedKey, err, id)
	}

	var curve string

	switch code {
	case fingerprint.ED25519PubKeyMultiCodec, fingerprint.ED25519PrivKeyMultiCodec:
		curve = jwk.Ed25519
	case fingerprint.X25519PubKeyMultiCodec, fingerprint.X25519PrivKeyMultiCodec:
		curve = jwk.X25519
	default:
		return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: multicodec 0x%x", id, code)
	}

	return fromRaw(id, curve, raw, private)
}

// fromRaw builds an OKP key. Private material is the 32 byte public key followed by the 32 byte private key.
func fromRaw(id, curve string, raw []byte, private bool) (*Key, error) {
	var x, d []byte

	switch {
	case private && len(raw) == pairKeySize:
		x, d = raw[:rawKeySize], raw[rawKeySize:]
	case !private && len(raw) == rawKeySize:
		x = raw
	default:
		return nil, didcommerr.Newf(didcommerr.InvalidKeySize, "%s: %d bytes", id, len(raw))
	}

	key, err := jwk.NewOKP(id, curve, x, d)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.UnsupportedKey, err, id)
	}

	return &Key{ID: id, Curve: curve, JWK: key}, nil
}

// EncodeBase58 returns key material in the base58 form read by FromSecret and FromVerificationMethod.
func EncodeBase58(k *Key) (string, error) {
	raw, err := okpMaterial(k)
	if err != nil {
		return "", err
	}

	return base58.Encode(raw), nil
}

// okpMaterial is the raw public key of an OKP key, followed by its private key when it has one.
func okpMaterial(k *Key) ([]byte, error) {
	if k.Curve != jwk.Ed25519 && k.Curve != jwk.X25519 {
		return nil, fmt.Errorf("no raw encoding for curve '%s'", k.Curve)
	}

	raw, err := k.JWK.PublicKeyBytes()
	if err != nil {
		return nil, err
	}

	if !k.IsPrivate() {
		return raw, nil
	}

	d, err := k.JWK.PrivateKeyBytes()
	if err != nil {
		return nil, err
	}

	return append(raw, d...), nil
}

// EncodeMultibase returns key material in the multibase multicodec form read by FromSecret and
// FromVerificationMethod.
func EncodeMultibase(k *Key) (string, error) {
	var code uint64

	switch {
	case k.Curve == jwk.Ed25519 && k.IsPrivate():
		code = fingerprint.ED25519PrivKeyMultiCodec
	case k.Curve == jwk.Ed25519:
		code = fingerprint.ED25519PubKeyMultiCodec
	case k.Curve == jwk.X25519 && k.IsPrivate():
		code = fingerprint.X25519PrivKeyMultiCodec
	case k.Curve == jwk.X25519:
		code = fingerprint.X25519PubKeyMultiCodec
	default:
		return "", fmt.Errorf("no multicodec for curve '%s'", k.Curve)
	}

	raw, err := okpMaterial(k)
	if err != nil {
		return "", err
	}

	return fingerprint.KeyFingerprint(code, raw), nil
}
