/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyselector maps DIDs and DID URLs to the concrete keys used to pack and unpack DIDComm envelopes.
//
// Sender selects keys on the packing side: private keys of the local party and public keys of the
// recipients. Recipient selects keys on the unpacking side: public keys of the sender and private keys of
// the local party.
package keyselector

import (
	"context"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

var logger = log.New("aries-framework/didcomm/keyselector")

func parseDIDURL(id string) (*did.DIDURL, error) {
	u, err := did.ParseDIDURL(id)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.InvalidDID, err, id)
	}

	return u, nil
}

func parseDIDURLs(ids []string) ([]*did.DIDURL, []string, error) {
	urls := make([]*did.DIDURL, 0, len(ids))
	dids := make([]string, 0, len(ids))

	for _, id := range ids {
		u, err := parseDIDURL(id)
		if err != nil {
			return nil, nil, err
		}

		urls = append(urls, u)
		dids = append(dids, u.DID.String())
	}

	return urls, dids, nil
}

// secretKey returns the private key for kid, or nil when the store has no secret for it.
func secretKey(ctx context.Context, secrets secret.Resolver, kid string) (*keys.Key, error) {
	sec, err := secrets.FindKey(ctx, kid)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.SomethingWentWrong, err, "find secret "+kid)
	}

	if sec == nil {
		return nil, nil
	}

	return keys.FromSecret(sec)
}

// methodKey returns the public key of the verification method id.
func methodKey(doc *did.Doc, id string) (*keys.Key, error) {
	vm, ok := doc.VerificationMethodByID(id)
	if !ok {
		return nil, didcommerr.New(didcommerr.VerificationMethodNotFoundForID, id)
	}

	return keys.FromVerificationMethod(vm)
}

// agreementKeys converts the keyAgreement methods of doc. Methods of unsupported types or curves are skipped.
func agreementKeys(doc *did.Doc) []*keys.Key {
	var result []*keys.Key

	vms := doc.KeyAgreementMethods()

	for i := range vms {
		vm := &vms[i]

		key, err := keys.FromVerificationMethod(vm)
		if err != nil {
			logger.Debugf("skipping key agreement method %s: %s", vm.ID, err)

			continue
		}

		if !keys.IsAgreementCurve(key.Curve) {
			logger.Debugf("skipping key agreement method %s: curve %s", vm.ID, key.Curve)

			continue
		}

		result = append(result, key)
	}

	return result
}

func kidsOf(ks []*keys.Key) []string {
	kids := make([]string, 0, len(ks))
	for _, k := range ks {
		kids = append(kids, k.ID)
	}

	return kids
}

// dedupe drops repeated kids, keeping the first occurrence.
func dedupe(ks []*keys.Key) []*keys.Key {
	seen := make(map[string]struct{}, len(ks))
	result := ks[:0:0]

	for _, k := range ks {
		if _, ok := seen[k.ID]; ok {
			continue
		}

		seen[k.ID] = struct{}{}
		result = append(result, k)
	}

	return result
}
