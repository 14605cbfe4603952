/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

const es256kKeySize = 32

// SigningMethodES256K implements ECDSA over secp256k1 with SHA-256 and a raw R||S signature.
type SigningMethodES256K struct{}

// SigningES256K is the registered ES256K signing method.
var SigningES256K = &SigningMethodES256K{} //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	jwt.RegisterSigningMethod(string(ES256K), func() jwt.SigningMethod {
		return SigningES256K
	})
}

// Alg returns the JWA name of the method.
func (m *SigningMethodES256K) Alg() string {
	return string(ES256K)
}

// Sign signs signingString with a *secp256k1.PrivateKey.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	priv, ok := key.(*secp256k1.PrivateKey)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}

	digest := sha256.Sum256([]byte(signingString))
	sig := ecdsa.Sign(priv, digest[:])

	r, s := sig.R(), sig.S()

	var rb, sb [es256kKeySize]byte

	r.PutBytes(&rb)
	s.PutBytes(&sb)

	return append(rb[:], sb[:]...), nil
}

// Verify checks a raw R||S signature with a *secp256k1.PublicKey.
func (m *SigningMethodES256K) Verify(signingString string, sig []byte, key interface{}) error {
	pub, ok := key.(*secp256k1.PublicKey)
	if !ok {
		return jwt.ErrInvalidKeyType
	}

	if len(sig) != 2*es256kKeySize {
		return jwt.ErrECDSAVerification
	}

	var r, s secp256k1.ModNScalar

	if overflow := r.SetByteSlice(sig[:es256kKeySize]); overflow {
		return jwt.ErrECDSAVerification
	}

	if overflow := s.SetByteSlice(sig[es256kKeySize:]); overflow {
		return jwt.ErrECDSAVerification
	}

	digest := sha256.Sum256([]byte(signingString))

	if !ecdsa.NewSignature(&r, &s).Verify(digest[:], pub) {
		return jwt.ErrECDSAVerification
	}

	return nil
}

// AlgForKey returns the signature algorithm matching the key curve.
func AlgForKey(key *jwk.JWK) (SigAlg, error) {
	switch key.Crv {
	case jwk.Ed25519:
		return EdDSA, nil
	case jwk.P256:
		return ES256, nil
	case jwk.P384:
		return ES384, nil
	case jwk.P521:
		return ES512, nil
	case jwk.Secp256k1:
		return ES256K, nil
	default:
		return "", fmt.Errorf("no signature algorithm for curve '%s'", key.Crv)
	}
}

// signingMethod resolves alg through the jwt signing method registry.
func signingMethod(alg SigAlg) (jwt.SigningMethod, error) {
	method := jwt.GetSigningMethod(string(alg))
	if method == nil {
		return nil, fmt.Errorf("signature algorithm '%s' not supported", alg)
	}

	return method, nil
}

// SignWithKey signs signingInput with the private key in key.
func SignWithKey(signingInput string, key *jwk.JWK) (SigAlg, []byte, error) {
	alg, err := AlgForKey(key)
	if err != nil {
		return "", nil, err
	}

	method, err := signingMethod(alg)
	if err != nil {
		return "", nil, err
	}

	sk, err := key.SigningKey()
	if err != nil {
		return "", nil, err
	}

	sig, err := method.Sign(signingInput, sk)
	if err != nil {
		return "", nil, fmt.Errorf("sign with %s: %w", alg, err)
	}

	return alg, sig, nil
}

// VerifyWithKey verifies sig over signingInput. The declared alg must match the key curve.
func VerifyWithKey(alg SigAlg, signingInput string, sig []byte, key *jwk.JWK) error {
	expected, err := AlgForKey(key)
	if err != nil {
		return err
	}

	if expected != alg {
		return fmt.Errorf("signature algorithm '%s' does not match key curve '%s'", alg, key.Crv)
	}

	method, err := signingMethod(alg)
	if err != nil {
		return err
	}

	vk, err := key.VerificationKey()
	if err != nil {
		return err
	}

	return method.Verify(signingInput, sig, vk)
}
