/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package packer

import (
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

// Provider interface for Packer ctx.
type Provider interface {
	VDRegistry() vdrapi.Resolver
	SecretResolver() secret.Resolver
}

// Options tune a single pack call. The zero value packs without signature, FromPrior issuer override or
// sender protection.
type Options struct {
	// SignFrom is the DID or kid to sign the plaintext with before encryption.
	SignFrom string
	// FromPriorIssuerKid overrides the iss claim when choosing the from_prior signing key.
	FromPriorIssuerKid string
	// EncAlgAnon is the algorithm of anonymous encryption and of the sender protection layer.
	EncAlgAnon AnonCryptAlg
	// EncAlgAuth is the algorithm of authenticated encryption.
	EncAlgAuth AuthCryptAlg
	// ProtectSenderID wraps an authenticated envelope in an anonymous one so the sender kid is hidden.
	ProtectSenderID bool
}

// Result is a packed envelope and the keys used to build it.
type Result struct {
	PackedMessage      string
	ToKids             []string
	FromKid            string
	SignFromKid        string
	FromPriorIssuerKid string
}
