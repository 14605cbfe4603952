/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fromprior signs and verifies the from_prior claim a party attaches to messages after rotating its DID.
package fromprior

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jwt"
)

var logger = log.New("aries-framework/didcomm/fromprior")

// SigningKeyFinder resolves the private key of an issuer kid or DID.
type SigningKeyFinder interface {
	FindSigningKey(ctx context.Context, signFrom string) (*keys.Key, error)
}

// VerificationKeyFinder resolves the public key of an issuer kid.
type VerificationKeyFinder interface {
	FindVerificationKey(ctx context.Context, signFrom string) (*keys.Key, error)
}

// Pack replaces the from_prior claims of msg by their signed JWT. The issuer key is issuerKid when set,
// otherwise the iss claim. It returns the message to send and the kid that signed, which is empty when msg
// has no claims to sign.
func Pack(ctx context.Context, msg *message.Message, issuerKid string,
	selector SigningKeyFinder) (*message.Message, string, error) {
	if msg.FromPrior == nil {
		return msg, "", nil
	}

	signFrom := issuerKid
	if signFrom == "" {
		signFrom = msg.FromPrior.Iss
	}

	if signFrom == "" {
		logger.Debugf("message %s: from_prior has no issuer, sent unsigned", msg.ID)

		return msg, "", nil
	}

	key, err := selector.FindSigningKey(ctx, signFrom)
	if err != nil {
		return nil, "", err
	}

	token, err := jwt.NewSigned(msg.FromPrior, key.JWK)
	if err != nil {
		return nil, "", didcommerr.Wrap(didcommerr.UnsupportedKey, err, "sign from_prior with "+key.ID)
	}

	return msg.WithFromPriorJWT(token.Serialize()), key.ID, nil
}

// Unpack verifies the from_prior JWT of msg and replaces it by its claims. It returns the updated message and
// the kid that signed the JWT. A message without a JWT, or whose JWT header names no kid, is returned as is
// with an empty kid.
func Unpack(ctx context.Context, msg *message.Message,
	selector VerificationKeyFinder) (*message.Message, string, error) {
	if msg.FromPriorJWT == "" {
		return msg, "", nil
	}

	kid, err := issuerKid(msg.FromPriorJWT)
	if err != nil {
		return nil, "", err
	}

	if kid == "" {
		logger.Warnf("from_prior_jwt of %s has no kid header, leaving it unverified", msg.ID)

		return msg, "", nil
	}

	key, err := selector.FindVerificationKey(ctx, kid)
	if err != nil {
		return nil, "", err
	}

	claims := &message.FromPrior{}

	_, err = jwt.Parse(msg.FromPriorJWT, claims, func(string) (*jwk.JWK, error) {
		return key.JWK, nil
	})
	if err != nil {
		return nil, "", didcommerr.Wrap(didcommerr.MalformedMessage, err, "from_prior_jwt of "+msg.ID)
	}

	if claims.Iss != "" {
		if u, e := did.ParseDIDURL(kid); e == nil && u.DID.String() != claims.Iss {
			return nil, "", didcommerr.Newf(didcommerr.MalformedMessage,
				"from_prior_jwt of %s: signed by %s, issued by %s", msg.ID, kid, claims.Iss)
		}
	}

	return msg.WithFromPrior(claims, ""), kid, nil
}

// issuerKid reads the kid header of a compact JWT without verifying it. It is empty when the header has none.
func issuerKid(token string) (string, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 { //nolint:gomnd
		return "", didcommerr.New(didcommerr.MalformedMessage, "from_prior_jwt: not a compact JWS")
	}

	data, err := base64.RawURLEncoding.DecodeString(segments[0])
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.MalformedMessage, err, "from_prior_jwt header")
	}

	headers := jose.Headers{}
	if err = json.Unmarshal(data, &headers); err != nil {
		return "", didcommerr.Wrap(didcommerr.MalformedMessage, err, "from_prior_jwt header")
	}

	kid, _ := headers.KeyID()

	return kid, nil
}
