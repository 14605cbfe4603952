/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package plain packs DIDComm messages as plaintext JSON.
package plain

import (
	"context"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keyselector"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
)

// Packer writes the plaintext JSON of a message.
type Packer struct {
	sender *keyselector.Sender
}

// New returns a plaintext Packer.
func New(ctx packer.Provider) *Packer {
	return &Packer{sender: keyselector.NewSender(ctx.VDRegistry(), ctx.SecretResolver())}
}

// Pack returns the canonical JSON of msg. Only opts.FromPriorIssuerKid is used.
func (p *Packer) Pack(ctx context.Context, msg *message.Message, opts *packer.Options) (*packer.Result, error) {
	payload, issuerKid, err := packer.Prepare(ctx, msg, fromPriorIssuerKid(opts), p.sender)
	if err != nil {
		return nil, err
	}

	return &packer.Result{PackedMessage: string(payload), FromPriorIssuerKid: issuerKid}, nil
}

func fromPriorIssuerKid(opts *packer.Options) string {
	if opts == nil {
		return ""
	}

	return opts.FromPriorIssuerKid
}
