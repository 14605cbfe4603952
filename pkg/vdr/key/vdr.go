/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key expands did:key identifiers into DID documents without any network access.
package key

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"regexp"

	"filippo.io/edwards25519"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/fingerprint"
)

// DIDMethod is the method name served by VDR.
const DIDMethod = "key"

const x25519KeySize = 32

// base58btc multibase fingerprint.
var fingerprintRegex = regexp.MustCompile(`^z[1-9a-km-zA-HJ-NP-Z]{46,}$`)

// VDR reads did:key documents. Ed25519 keys get an authentication method and a derived X25519
// keyAgreement method, X25519 keys only the keyAgreement method.
type VDR struct{}

// New returns a did:key VDR.
func New() *VDR {
	return &VDR{}
}

// Accept reports whether method is key.
func (v *VDR) Accept(method string) bool { return method == DIDMethod }

// Close is a no-op.
func (v *VDR) Close() error { return nil }

// Read builds the document of didKey.
func (v *VDR) Read(_ context.Context, didKey string) (*did.Doc, error) {
	parsed, err := did.Parse(didKey)
	if err != nil {
		return nil, fmt.Errorf("did:key read: %w", err)
	}

	if parsed.Method != DIDMethod {
		return nil, fmt.Errorf("did:key read: not a did:key: %s", didKey)
	}

	fp := parsed.MethodSpecificID
	if !fingerprintRegex.MatchString(fp) {
		return nil, fmt.Errorf("did:key read: invalid did:key method ID: %s", fp)
	}

	pub, codec, err := fingerprint.PubKeyFromFingerprint(fp)
	if err != nil {
		return nil, fmt.Errorf("did:key read %s: %w", didKey, err)
	}

	switch codec {
	case fingerprint.ED25519PubKeyMultiCodec:
		return ed25519Doc(didKey, fp, pub)
	case fingerprint.X25519PubKeyMultiCodec:
		if len(pub) != x25519KeySize {
			return nil, fmt.Errorf("did:key read %s: X25519 key has %d bytes", didKey, len(pub))
		}

		return did.BuildDoc(didKey,
			did.WithKeyAgreement(method(didKey, fp, did.X25519KeyAgreementKey2020))), nil
	default:
		return nil, fmt.Errorf("did:key read %s: unsupported key multicodec code [0x%x]", didKey, codec)
	}
}

func ed25519Doc(didKey, fp string, pub []byte) (*did.Doc, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("did:key read %s: Ed25519 key has %d bytes", didKey, len(pub))
	}

	x25519Pub, err := PublicEd25519toCurve25519(pub)
	if err != nil {
		return nil, fmt.Errorf("did:key read %s: %w", didKey, err)
	}

	agreementFP := fingerprint.KeyFingerprint(fingerprint.X25519PubKeyMultiCodec, x25519Pub)

	return did.BuildDoc(didKey,
		did.WithAuthentication(method(didKey, fp, did.Ed25519VerificationKey2020)),
		did.WithKeyAgreement(method(didKey, agreementFP, did.X25519KeyAgreementKey2020)),
	), nil
}

func method(didKey, fp, vmType string) did.VerificationMethod {
	return did.VerificationMethod{
		ID:         didKey + "#" + fp,
		Type:       vmType,
		Controller: didKey,
		Material:   did.VerificationMaterial{Format: did.MaterialMultibase, Value: []byte(fp)},
	}
}

// PublicEd25519toCurve25519 returns the X25519 public key birationally equivalent to an Ed25519 one.
func PublicEd25519toCurve25519(pub []byte) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 public key: %w", err)
	}

	return p.BytesMontgomery(), nil
}
