/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package packer holds what the DIDComm envelope packers share: options, results, algorithm pairs and the
// plaintext preparation and signing steps every packer starts with.
package packer

import (
	"context"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/fromprior"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keyselector"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
)

// Prepare signs the from_prior claims of msg, when present, and returns the canonical JSON of the message to
// protect along with the from_prior issuer kid.
func Prepare(ctx context.Context, msg *message.Message, fromPriorIssuerKid string,
	sender *keyselector.Sender) ([]byte, string, error) {
	msg, issuerKid, err := fromprior.Pack(ctx, msg, fromPriorIssuerKid, sender)
	if err != nil {
		return nil, "", err
	}

	payload, err := msg.JSON()
	if err != nil {
		return nil, "", didcommerr.Wrap(didcommerr.MalformedMessage, err, msg.ID)
	}

	return payload, issuerKid, nil
}

// Sign signs payload with the key selected for signFrom and returns the JWS in general JSON serialization
// and the signing kid.
func Sign(ctx context.Context, payload []byte, signFrom string, sender *keyselector.Sender) ([]byte, string, error) {
	key, err := sender.FindSigningKey(ctx, signFrom)
	if err != nil {
		return nil, "", err
	}

	jws, err := jose.NewJWS(payload, jose.SignedMediaType, key.JWK)
	if err != nil {
		return nil, "", didcommerr.Wrap(didcommerr.UnsupportedKey, err, "sign with "+key.ID)
	}

	signed, err := jws.Serialize()
	if err != nil {
		return nil, "", didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "serialize JWS")
	}

	return signed, key.ID, nil
}

// SignIfNeeded signs payload when signFrom is set, otherwise it returns payload unchanged.
func SignIfNeeded(ctx context.Context, payload []byte, signFrom string,
	sender *keyselector.Sender) ([]byte, string, error) {
	if signFrom == "" {
		return payload, "", nil
	}

	return Sign(ctx, payload, signFrom, sender)
}
