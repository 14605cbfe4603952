/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signed packs DIDComm messages as JWS in general JSON serialization.
package signed

import (
	"context"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keyselector"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
)

// Packer signs the plaintext JSON of a message.
type Packer struct {
	sender *keyselector.Sender
}

// New returns a signing Packer.
func New(ctx packer.Provider) *Packer {
	return &Packer{sender: keyselector.NewSender(ctx.VDRegistry(), ctx.SecretResolver())}
}

// Pack signs msg with the key selected for signFrom, a DID or a kid.
func (p *Packer) Pack(ctx context.Context, msg *message.Message, signFrom string,
	opts *packer.Options) (*packer.Result, error) {
	if signFrom == "" {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "signFrom is required")
	}

	issuer := ""
	if opts != nil {
		issuer = opts.FromPriorIssuerKid
	}

	payload, issuerKid, err := packer.Prepare(ctx, msg, issuer, p.sender)
	if err != nil {
		return nil, err
	}

	jws, kid, err := packer.Sign(ctx, payload, signFrom, p.sender)
	if err != nil {
		return nil, err
	}

	return &packer.Result{PackedMessage: string(jws), SignFromKid: kid, FromPriorIssuerKid: issuerKid}, nil
}
