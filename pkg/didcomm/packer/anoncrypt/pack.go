/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncrypt packs DIDComm messages as JWE with ECDH-ES+A256KW key wrapping: recipients learn nothing
// about the sender from the envelope.
package anoncrypt

import (
	"context"
	"encoding/json"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keyselector"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

var logger = log.New("aries-framework/didcomm/packer/anoncrypt")

// Packer represents an Anoncrypt Packer.
type Packer struct {
	sender *keyselector.Sender
}

// New returns an anonymous encryption Packer.
func New(ctx packer.Provider) *Packer {
	return &Packer{sender: keyselector.NewSender(ctx.VDRegistry(), ctx.SecretResolver())}
}

// Pack encrypts msg for to, a list of DIDs or kids, with opts.EncAlgAnon. With opts.SignFrom set the
// plaintext is signed first and the JWS is encrypted.
func (p *Packer) Pack(ctx context.Context, msg *message.Message, to []string,
	opts *packer.Options) (*packer.Result, error) {
	if opts == nil || opts.EncAlgAnon == "" {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "encAlgAnon is required")
	}

	recipients, err := p.sender.FindAnonCryptKeys(ctx, to)
	if err != nil {
		return nil, err
	}

	payload, issuerKid, err := packer.Prepare(ctx, msg, opts.FromPriorIssuerKid, p.sender)
	if err != nil {
		return nil, err
	}

	payload, signKid, err := packer.SignIfNeeded(ctx, payload, opts.SignFrom, p.sender)
	if err != nil {
		return nil, err
	}

	packed, err := Encrypt(payload, recipients, opts.EncAlgAnon)
	if err != nil {
		return nil, err
	}

	return &packer.Result{
		PackedMessage:      packed,
		ToKids:             kids(recipients),
		SignFromKid:        signKid,
		FromPriorIssuerKid: issuerKid,
	}, nil
}

// Encrypt builds a JWE of payload for recipients. Every recipient key must be on the same curve.
func Encrypt(payload []byte, recipients []*keys.Key, alg packer.AnonCryptAlg) (string, error) {
	_, enc, err := alg.JOSE()
	if err != nil {
		return "", err
	}

	recipientJWKs := make([]*jwk.JWK, 0, len(recipients))
	for _, r := range recipients {
		recipientJWKs = append(recipientJWKs, r.JWK.Public())
	}

	encrypter, err := jose.NewJWEEncrypt(enc, nil, recipientJWKs, nil)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.UnsupportedKey, err, "anoncrypt")
	}

	jwe, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "anoncrypt")
	}

	packed, err := jwe.Serialize(json.Marshal)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "anoncrypt: serialize JWE")
	}

	logger.Debugf("anoncrypt: packed %d bytes for %v", len(payload), kids(recipients))

	return packed, nil
}

func kids(ks []*keys.Key) []string {
	result := make([]string, 0, len(ks))
	for _, k := range ks {
		result = append(result, k.ID)
	}

	return result
}
