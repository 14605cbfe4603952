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
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr"
)

// Sender selects keys on the packing side.
type Sender struct {
	didResolver vdrapi.Resolver
	secrets     secret.Resolver
}

// NewSender returns a Sender backed by a DID resolver and the local secrets.
func NewSender(didResolver vdrapi.Resolver, secrets secret.Resolver) *Sender {
	return &Sender{didResolver: didResolver, secrets: secrets}
}

// FindSigningKey returns the private key to sign with. signFrom is either a kid or a DID, in which case the
// first supported authentication method of the DID is used.
func (s *Sender) FindSigningKey(ctx context.Context, signFrom string) (*keys.Key, error) {
	u, err := parseDIDURL(signFrom)
	if err != nil {
		return nil, err
	}

	kid := signFrom

	if !u.HasFragment() {
		doc, e := vdr.ResolveDoc(ctx, s.didResolver, u.DID.String())
		if e != nil {
			return nil, e
		}

		kid = firstSigningMethod(doc)
		if kid == "" {
			return nil, didcommerr.Newf(didcommerr.SecretNotFound, "%s: no supported authentication method", signFrom)
		}
	}

	key, err := secretKey(ctx, s.secrets, kid)
	if err != nil {
		return nil, err
	}

	if key == nil {
		return nil, didcommerr.New(didcommerr.SecretNotFound, kid)
	}

	if !keys.IsSigningCurve(key.Curve) {
		return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: curve %s cannot sign", kid, key.Curve)
	}

	return key, nil
}

func firstSigningMethod(doc *did.Doc) string {
	vms := doc.AuthenticationMethods()

	for i := range vms {
		key, err := keys.FromVerificationMethod(&vms[i])
		if err != nil {
			logger.Debugf("skipping authentication method %s: %s", vms[i].ID, err)

			continue
		}

		if keys.IsSigningCurve(key.Curve) {
			return key.ID
		}
	}

	return ""
}

// FindAuthCryptKeys returns the sender agreement key and the recipient keys for authenticated encryption.
//
// With a kid in from, that secret is the sender key. With a DID, the first keyAgreement method that has a
// local secret and a compatible recipient key for every entry of to is chosen. Recipient keys on another
// curve than the sender key are dropped; an entry of to left with no key fails with UnsupportedKey.
func (s *Sender) FindAuthCryptKeys(ctx context.Context, from string, to []string) (*keys.Key, []*keys.Key, error) {
	fromURL, err := parseDIDURL(from)
	if err != nil {
		return nil, nil, err
	}

	toURLs, toDIDs, err := parseDIDURLs(to)
	if err != nil {
		return nil, nil, err
	}

	toDocs, err := vdr.ResolveDocs(ctx, s.didResolver, toDIDs)
	if err != nil {
		return nil, nil, err
	}

	var sender *keys.Key

	if fromURL.HasFragment() {
		sender, err = s.senderFromKid(ctx, from)
	} else {
		sender, err = s.senderFromDID(ctx, fromURL.DID.String(), toDocs, toURLs)
	}

	if err != nil {
		return nil, nil, err
	}

	var recipients []*keys.Key

	for i := range toDocs {
		compatible, e := recipientKeys(toDocs[i], toURLs[i], sender.Curve)
		if e != nil {
			return nil, nil, e
		}

		if len(compatible) == 0 {
			return nil, nil, didcommerr.Newf(didcommerr.UnsupportedKey,
				"%s: no recipient key on sender curve %s", to[i], sender.Curve)
		}

		recipients = append(recipients, compatible...)
	}

	return sender, dedupe(recipients), nil
}

func (s *Sender) senderFromKid(ctx context.Context, kid string) (*keys.Key, error) {
	key, err := secretKey(ctx, s.secrets, kid)
	if err != nil {
		return nil, err
	}

	if key == nil {
		return nil, didcommerr.New(didcommerr.SecretNotFound, kid)
	}

	if !keys.IsAgreementCurve(key.Curve) {
		return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: curve %s cannot be used for key agreement",
			kid, key.Curve)
	}

	return key, nil
}

func (s *Sender) senderFromDID(ctx context.Context, fromDID string, toDocs []*did.Doc,
	toURLs []*did.DIDURL) (*keys.Key, error) {
	fromDoc, err := vdr.ResolveDoc(ctx, s.didResolver, fromDID)
	if err != nil {
		return nil, err
	}

	candidates := agreementKeys(fromDoc)

	owned, err := s.secrets.FindKeys(ctx, kidsOf(candidates))
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "find secrets of "+fromDID)
	}

	if len(owned) == 0 {
		return nil, didcommerr.Newf(didcommerr.SecretNotFound, "%s: no key agreement secret", fromDID)
	}

	ownedSet := make(map[string]struct{}, len(owned))
	for _, kid := range owned {
		ownedSet[kid] = struct{}{}
	}

	for _, candidate := range candidates {
		if _, ok := ownedSet[candidate.ID]; !ok {
			logger.Debugf("skipping sender key %s: secret not found", candidate.ID)

			continue
		}

		if !compatibleWithAll(candidate.Curve, toDocs, toURLs) {
			logger.Debugf("skipping sender key %s: no recipient key on curve %s", candidate.ID, candidate.Curve)

			continue
		}

		return s.senderFromKid(ctx, candidate.ID)
	}

	return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: no sender key compatible with recipients", fromDID)
}

func compatibleWithAll(curve string, toDocs []*did.Doc, toURLs []*did.DIDURL) bool {
	for i := range toDocs {
		compatible, err := recipientKeys(toDocs[i], toURLs[i], curve)
		if err != nil || len(compatible) == 0 {
			return false
		}
	}

	return true
}

// recipientKeys returns the keys of to that use curve. A kid yields at most that key.
func recipientKeys(doc *did.Doc, to *did.DIDURL, curve string) ([]*keys.Key, error) {
	var candidates []*keys.Key

	if to.HasFragment() {
		key, err := methodKey(doc, to.String())
		if err != nil {
			return nil, err
		}

		candidates = []*keys.Key{key}
	} else {
		candidates = agreementKeys(doc)
	}

	var result []*keys.Key

	for _, key := range candidates {
		if key.Curve != curve {
			logger.Debugf("dropping recipient key %s: curve %s does not match sender curve %s", key.ID, key.Curve, curve)

			continue
		}

		result = append(result, key)
	}

	return result, nil
}

// FindAnonCryptKeys returns the recipient keys for anonymous encryption. A kid in to yields that key, a DID
// yields its keyAgreement keys. A JWE carries a single ephemeral key, so every recipient must share one curve:
// the first curve available to all of them is used and their keys on other curves are dropped.
func (s *Sender) FindAnonCryptKeys(ctx context.Context, to []string) ([]*keys.Key, error) {
	toURLs, toDIDs, err := parseDIDURLs(to)
	if err != nil {
		return nil, err
	}

	toDocs, err := vdr.ResolveDocs(ctx, s.didResolver, toDIDs)
	if err != nil {
		return nil, err
	}

	var perRecipient [][]*keys.Key

	for i, doc := range toDocs {
		if !toURLs[i].HasFragment() {
			ks := agreementKeys(doc)
			if len(ks) == 0 {
				return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: no keyAgreement keys", to[i])
			}

			perRecipient = append(perRecipient, ks)

			continue
		}

		vm, ok := doc.VerificationMethodByID(to[i])
		if !ok {
			logger.Warnf("skipping recipient %s: verification method not found", to[i])

			continue
		}

		key, err := keys.FromVerificationMethod(vm)
		if err != nil {
			return nil, err
		}

		if !keys.IsAgreementCurve(key.Curve) {
			return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: curve %s cannot be used for key agreement",
				key.ID, key.Curve)
		}

		perRecipient = append(perRecipient, []*keys.Key{key})
	}

	if len(perRecipient) == 0 {
		return nil, didcommerr.New(didcommerr.UnsupportedKey, strings.Join(to, ","))
	}

	curve, ok := sharedCurve(perRecipient)
	if !ok {
		return nil, didcommerr.Newf(didcommerr.UnsupportedKey, "%s: no key agreement curve shared by every recipient",
			strings.Join(to, ","))
	}

	var result []*keys.Key

	for _, ks := range perRecipient {
		for _, key := range ks {
			if key.Curve != curve {
				logger.Debugf("dropping recipient key %s: curve %s does not match curve %s", key.ID, key.Curve, curve)

				continue
			}

			result = append(result, key)
		}
	}

	return dedupe(result), nil
}

// sharedCurve returns the first curve, in key order, that every recipient has at least one key on.
func sharedCurve(perRecipient [][]*keys.Key) (string, bool) {
	for _, candidate := range perRecipient[0] {
		shared := true

		for _, ks := range perRecipient[1:] {
			if !hasCurve(ks, candidate.Curve) {
				shared = false

				break
			}
		}

		if shared {
			return candidate.Curve, true
		}
	}

	return "", false
}

func hasCurve(ks []*keys.Key, curve string) bool {
	for _, k := range ks {
		if k.Curve == curve {
			return true
		}
	}

	return false
}
