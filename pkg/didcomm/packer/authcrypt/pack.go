/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package authcrypt packs DIDComm messages as JWE with ECDH-1PU+A256KW key wrapping: recipients can
// authenticate the sender from the envelope alone.
package authcrypt

import (
	"context"
	"encoding/json"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keyselector"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/anoncrypt"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

var logger = log.New("aries-framework/didcomm/packer/authcrypt")

// Packer represents an Authcrypt Packer.
type Packer struct {
	sender *keyselector.Sender
}

// New returns an authenticated encryption Packer.
func New(ctx packer.Provider) *Packer {
	return &Packer{sender: keyselector.NewSender(ctx.VDRegistry(), ctx.SecretResolver())}
}

// Pack encrypts msg from the sender from to the recipients to with opts.EncAlgAuth.
// With opts.ProtectSenderID the resulting JWE is wrapped once more in an anoncrypt JWE for the same
// recipient keys so the sender kid is not visible on the wire.
func (p *Packer) Pack(ctx context.Context, msg *message.Message, from string, to []string,
	opts *packer.Options) (*packer.Result, error) {
	if from == "" {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "from is required for authcrypt")
	}

	if opts == nil || opts.EncAlgAuth == "" {
		return nil, didcommerr.New(didcommerr.UnsupportedParams, "encAlgAuth is required")
	}

	if _, _, err := opts.EncAlgAuth.JOSE(); err != nil {
		return nil, err
	}

	senderKey, recipients, err := p.sender.FindAuthCryptKeys(ctx, from, to)
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

	packed, err := Encrypt(payload, senderKey, recipients, opts.EncAlgAuth)
	if err != nil {
		return nil, err
	}

	if opts.ProtectSenderID {
		anonAlg := opts.EncAlgAnon
		if anonAlg == "" {
			anonAlg = packer.A256CBCHS512ECDHESA256KW
		}

		packed, err = anoncrypt.Encrypt([]byte(packed), recipients, anonAlg)
		if err != nil {
			return nil, err
		}
	}

	return &packer.Result{
		PackedMessage:      packed,
		ToKids:             kids(recipients),
		FromKid:            senderKey.ID,
		SignFromKid:        signKid,
		FromPriorIssuerKid: issuerKid,
	}, nil
}

// Encrypt builds a JWE of payload authenticated by sender for recipients. The sender key and every recipient
// key must be on the same curve.
func Encrypt(payload []byte, sender *keys.Key, recipients []*keys.Key, alg packer.AuthCryptAlg) (string, error) {
	_, enc, err := alg.JOSE()
	if err != nil {
		return "", err
	}

	recipientJWKs := make([]*jwk.JWK, 0, len(recipients))
	for _, r := range recipients {
		recipientJWKs = append(recipientJWKs, r.JWK.Public())
	}

	encrypter, err := jose.NewJWEEncrypt(enc, sender.JWK, recipientJWKs, nil)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.UnsupportedKey, err, "authcrypt")
	}

	jwe, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "authcrypt")
	}

	packed, err := jwe.Serialize(json.Marshal)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "authcrypt: serialize JWE")
	}

	logger.Debugf("authcrypt: packed %d bytes from %s for %v", len(payload), sender.ID, kids(recipients))

	return packed, nil
}

func kids(ks []*keys.Key) []string {
	result := make([]string, 0, len(ks))
	for _, k := range ks {
		result = append(result, k.ID)
	}

	return result
}
