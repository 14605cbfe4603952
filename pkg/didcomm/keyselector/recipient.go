/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyselector

import (
	"context"
	"strings"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr"
)

// Recipient selects keys on the unpacking side.
type Recipient struct {
	didResolver vdrapi.Resolver
	secrets     secret.Resolver
}

// NewRecipient returns a Recipient backed by a DID resolver and the local secrets.
func NewRecipient(didResolver vdrapi.Resolver, secrets secret.Resolver) *Recipient {
	return &Recipient{didResolver: didResolver, secrets: secrets}
}

// FindVerificationKey returns the public key of the kid signFrom.
func (r *Recipient) FindVerificationKey(ctx context.Context, signFrom string) (*keys.Key, error) {
	return r.publicKey(ctx, signFrom)
}

func (r *Recipient) publicKey(ctx context.Context, kid string) (*keys.Key, error) {
	u, err := parseDIDURL(kid)
	if err != nil {
		return nil, err
	}

	if !u.HasFragment() {
		return nil, didcommerr.New(didcommerr.ExpectedDIDFragment, kid)
	}

	doc, err := vdr.ResolveDoc(ctx, r.didResolver, u.DID.String())
	if err != nil {
		return nil, err
	}

	return methodKey(doc, kid)
}

// FindAuthCryptKeys returns the sender public key and the local private keys among the kids of to.
// Every local key must be on the sender key curve.
func (r *Recipient) FindAuthCryptKeys(ctx context.Context, from string, to []string) (*keys.Key, []*keys.Key,
	error) {
	sender, err := r.publicKey(ctx, from)
	if err != nil {
		return nil, nil, err
	}

	recipients, err := r.localKeys(ctx, to)
	if err != nil {
		return nil, nil, err
	}

	for _, key := range recipients {
		if key.Curve != sender.Curve {
			return nil, nil, didcommerr.Newf(didcommerr.UnexpectedCurve, "%s: curve %s, sender %s has curve %s",
				key.ID, key.Curve, sender.ID, sender.Curve)
		}
	}

	return sender, recipients, nil
}

// FindAnonCryptKeys returns the local private keys among the kids of to.
func (r *Recipient) FindAnonCryptKeys(ctx context.Context, to []string) ([]*keys.Key, error) {
	return r.localKeys(ctx, to)
}

func (r *Recipient) localKeys(ctx context.Context, to []string) ([]*keys.Key, error) {
	for _, kid := range to {
		u, err := parseDIDURL(kid)
		if err != nil {
			return nil, err
		}

		if !u.HasFragment() {
			return nil, didcommerr.New(didcommerr.ExpectedDIDFragment, kid)
		}
	}

	found, err := r.secrets.FindKeys(ctx, to)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "find secrets")
	}

	if len(found) == 0 {
		return nil, didcommerr.New(didcommerr.SecretsNotFound, strings.Join(to, ","))
	}

	result := make([]*keys.Key, 0, len(found))

	for _, kid := range found {
		key, err := secretKey(ctx, r.secrets, kid)
		if err != nil {
			return nil, err
		}

		if key == nil {
			return nil, didcommerr.New(didcommerr.SecretNotFound, kid)
		}

		result = append(result, key)
	}

	return result, nil
}

// HasKeysForForwardNext reports whether the local secrets hold next, when it is a kid, or any keyAgreement
// key of next, when it is a DID.
func (r *Recipient) HasKeysForForwardNext(ctx context.Context, next string) (bool, error) {
	u, err := parseDIDURL(next)
	if err != nil {
		return false, err
	}

	kids := []string{next}

	if !u.HasFragment() {
		doc, e := vdr.ResolveDoc(ctx, r.didResolver, u.DID.String())
		if e != nil {
			return false, e
		}

		kids = doc.KeyAgreement
	}

	if len(kids) == 0 {
		return false, nil
	}

	found, err := r.secrets.FindKeys(ctx, kids)
	if err != nil {
		return false, didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "find secrets")
	}

	return len(found) > 0, nil
}
