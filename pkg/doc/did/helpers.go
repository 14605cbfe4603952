/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

// LookupService returns the first service from the given DIDDoc matching the given service type.
func LookupService(didDoc *Doc, serviceType string) (*Service, bool) {
	for i := range didDoc.Service {
		if didDoc.Service[i].Type == serviceType {
			return &didDoc.Service[i], true
		}
	}

	return nil, false
}

// VerificationMethodByID returns the verification method with the given id.
func (doc *Doc) VerificationMethodByID(id string) (*VerificationMethod, bool) {
	for i := range doc.VerificationMethod {
		if doc.VerificationMethod[i].ID == id {
			return &doc.VerificationMethod[i], true
		}
	}

	return nil, false
}

// AuthenticationMethods returns the methods referenced from the authentication relationship, in declaration order.
// Dangling references are skipped.
func (doc *Doc) AuthenticationMethods() []VerificationMethod {
	return doc.lookup(doc.Authentication)
}

// KeyAgreementMethods returns the methods referenced from the keyAgreement relationship, in declaration order.
// Dangling references are skipped.
func (doc *Doc) KeyAgreementMethods() []VerificationMethod {
	return doc.lookup(doc.KeyAgreement)
}

func (doc *Doc) lookup(ids []string) []VerificationMethod {
	var vms []VerificationMethod

	for _, id := range ids {
		if vm, ok := doc.VerificationMethodByID(id); ok {
			vms = append(vms, *vm)
		}
	}

	return vms
}
