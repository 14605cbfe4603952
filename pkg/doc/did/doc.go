/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// ContextV1 of the DID document.
	ContextV1 = "https://www.w3.org/ns/did/v1"

	jsonldType               = "type"
	jsonldID                 = "id"
	jsonldController         = "controller"
	jsonldPublicKeyBase58    = "publicKeyBase58"
	jsonldPublicKeyMultibase = "publicKeyMultibase"
	jsonldPublicKeyJwk       = "publicKeyJwk"
)

// MaterialFormat is the encoding of a verification method's key material.
type MaterialFormat string

// Supported verification material formats.
const (
	MaterialJWK       MaterialFormat = "jwk"
	MaterialBase58    MaterialFormat = "base58"
	MaterialMultibase MaterialFormat = "multibase"
)

// Verification method types understood by the key abstraction.
const (
	JSONWebKey2020                = "JsonWebKey2020"
	X25519KeyAgreementKey2019     = "X25519KeyAgreementKey2019"
	X25519KeyAgreementKey2020     = "X25519KeyAgreementKey2020"
	Ed25519VerificationKey2018    = "Ed25519VerificationKey2018"
	Ed25519VerificationKey2020    = "Ed25519VerificationKey2020"
	EcdsaSecp256k1VerificationKey = "EcdsaSecp256k1VerificationKey2019"
)

// ErrKeyNotFound is returned when a verification method is not present in the document.
var ErrKeyNotFound = errors.New("verification method not found in DID document")

// VerificationMaterial is the encoded key material of a verification method. Value holds the encoded form:
// JWK JSON, base58 text or multibase text.
type VerificationMaterial struct {
	Format MaterialFormat
	Value  []byte
}

// VerificationMethod DID doc verification method.
type VerificationMethod struct {
	ID         string
	Type       string
	Controller string
	Material   VerificationMaterial
}

// Doc DID Document definition.
type Doc struct {
	Context            []string
	ID                 string
	VerificationMethod []VerificationMethod
	Authentication     []string
	KeyAgreement       []string
	Service            []Service
}

type rawDoc struct {
	Context            interface{}              `json:"@context,omitempty"`
	ID                 string                   `json:"id,omitempty"`
	VerificationMethod []map[string]interface{} `json:"verificationMethod,omitempty"`
	Authentication     []interface{}            `json:"authentication,omitempty"`
	KeyAgreement       []interface{}            `json:"keyAgreement,omitempty"`
	Service            []rawService             `json:"service,omitempty"`
}

type rawService struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	ServiceEndpoint json.RawMessage `json:"serviceEndpoint"`
}

var schemaLoader = gojsonschema.NewStringLoader(schemaV1) //nolint:gochecknoglobals

// ParseDocument creates an instance of Doc by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	raw := &rawDoc{}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of did doc bytes failed: %w", err)
	} else if raw == nil {
		return nil, errors.New("document payload is not provided")
	}

	err = validate(data)
	if err != nil {
		return nil, err
	}

	doc := &Doc{Context: raw.parseContext(), ID: raw.ID}

	for _, rawVM := range raw.VerificationMethod {
		vm, err := parseVerificationMethod(doc.ID, rawVM)
		if err != nil {
			return nil, fmt.Errorf("populate verification methods failed: %w", err)
		}

		doc.VerificationMethod = append(doc.VerificationMethod, *vm)
	}

	doc.Authentication, err = doc.populateRelationship(raw.Authentication)
	if err != nil {
		return nil, fmt.Errorf("populate authentication failed: %w", err)
	}

	doc.KeyAgreement, err = doc.populateRelationship(raw.KeyAgreement)
	if err != nil {
		return nil, fmt.Errorf("populate keyAgreement failed: %w", err)
	}

	for _, rs := range raw.Service {
		endpoint, err := ParseServiceEndpoint(rs.ServiceEndpoint)
		if err != nil {
			return nil, fmt.Errorf("populate service %s failed: %w", rs.ID, err)
		}

		doc.Service = append(doc.Service, Service{
			ID:              absoluteID(doc.ID, rs.ID),
			Type:            rs.Type,
			ServiceEndpoint: endpoint,
		})
	}

	return doc, nil
}

// populateRelationship resolves references and embedded methods of a verification relationship into a list of
// absolute method ids. Embedded methods are appended to the document's verification methods.
func (doc *Doc) populateRelationship(entries []interface{}) ([]string, error) {
	var ids []string

	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			ids = append(ids, absoluteID(doc.ID, e))
		case map[string]interface{}:
			vm, err := parseVerificationMethod(doc.ID, e)
			if err != nil {
				return nil, err
			}

			if _, ok := doc.VerificationMethodByID(vm.ID); !ok {
				doc.VerificationMethod = append(doc.VerificationMethod, *vm)
			}

			ids = append(ids, vm.ID)
		default:
			return nil, fmt.Errorf("unsupported verification relationship entry %T", entry)
		}
	}

	return ids, nil
}

func parseVerificationMethod(docID string, raw map[string]interface{}) (*VerificationMethod, error) {
	vm := &VerificationMethod{
		ID:         absoluteID(docID, stringEntry(raw[jsonldID])),
		Type:       stringEntry(raw[jsonldType]),
		Controller: stringEntry(raw[jsonldController]),
	}

	switch {
	case stringEntry(raw[jsonldPublicKeyBase58]) != "":
		vm.Material = VerificationMaterial{Format: MaterialBase58, Value: []byte(stringEntry(raw[jsonldPublicKeyBase58]))}
	case stringEntry(raw[jsonldPublicKeyMultibase]) != "":
		vm.Material = VerificationMaterial{
			Format: MaterialMultibase,
			Value:  []byte(stringEntry(raw[jsonldPublicKeyMultibase])),
		}
	case mapEntry(raw[jsonldPublicKeyJwk]) != nil:
		jwkBytes, err := json.Marshal(raw[jsonldPublicKeyJwk])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal '%s', cause: %w ", jsonldPublicKeyJwk, err)
		}

		vm.Material = VerificationMaterial{Format: MaterialJWK, Value: jwkBytes}
	default:
		return nil, fmt.Errorf("public key encoding not supported for %s", vm.ID)
	}

	return vm, nil
}

// JSONBytes converts the document into JSON bytes.
func (doc *Doc) JSONBytes() ([]byte, error) {
	raw := &rawDoc{ID: doc.ID}

	switch len(doc.Context) {
	case 0:
	case 1:
		raw.Context = doc.Context[0]
	default:
		raw.Context = doc.Context
	}

	for _, vm := range doc.VerificationMethod {
		raw.VerificationMethod = append(raw.VerificationMethod, vm.rawMap())
	}

	for _, id := range doc.Authentication {
		raw.Authentication = append(raw.Authentication, id)
	}

	for _, id := range doc.KeyAgreement {
		raw.KeyAgreement = append(raw.KeyAgreement, id)
	}

	for _, s := range doc.Service {
		endpoint, err := s.ServiceEndpoint.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("JSON marshalling of service %s failed: %w", s.ID, err)
		}

		raw.Service = append(raw.Service, rawService{ID: s.ID, Type: s.Type, ServiceEndpoint: endpoint})
	}

	byteDoc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of document failed: %w", err)
	}

	return byteDoc, nil
}

func (vm *VerificationMethod) rawMap() map[string]interface{} {
	m := map[string]interface{}{
		jsonldID:   vm.ID,
		jsonldType: vm.Type,
	}

	if vm.Controller != "" {
		m[jsonldController] = vm.Controller
	}

	switch vm.Material.Format {
	case MaterialJWK:
		m[jsonldPublicKeyJwk] = json.RawMessage(vm.Material.Value)
	case MaterialBase58:
		m[jsonldPublicKeyBase58] = string(vm.Material.Value)
	case MaterialMultibase:
		m[jsonldPublicKeyMultibase] = string(vm.Material.Value)
	}

	return m
}

func (r *rawDoc) parseContext() []string {
	switch ctx := r.Context.(type) {
	case []interface{}:
		var context []string

		for _, v := range ctx {
			if s, ok := v.(string); ok {
				context = append(context, s)
			}
		}

		return context
	case string:
		return []string{ctx}
	}

	return nil
}

func validate(data []byte) error {
	documentLoader := gojsonschema.NewStringLoader(string(data))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation of DID doc failed: %w", err)
	}

	if !result.Valid() {
		errMsg := "did document not valid:\n"
		for _, desc := range result.Errors() {
			errMsg = errMsg + fmt.Sprintf("- %s\n", desc)
		}

		return errors.New(errMsg)
	}

	return nil
}

func absoluteID(docID, id string) string {
	if strings.HasPrefix(id, "#") {
		return docID + id
	}

	return id
}

func stringEntry(entry interface{}) string {
	if entry == nil {
		return ""
	}

	s, ok := entry.(string)
	if !ok {
		return ""
	}

	return s
}

func mapEntry(entry interface{}) map[string]interface{} {
	if entry == nil {
		return nil
	}

	m, ok := entry.(map[string]interface{})
	if !ok {
		return nil
	}

	return m
}

// DocOption provides options to build DID Doc.
type DocOption func(opts *Doc)

// WithVerificationMethod adds verification methods to the document.
func WithVerificationMethod(vms ...VerificationMethod) DocOption {
	return func(opts *Doc) {
		opts.VerificationMethod = append(opts.VerificationMethod, vms...)
	}
}

// WithAuthentication adds verification methods referenced from the authentication relationship.
func WithAuthentication(vms ...VerificationMethod) DocOption {
	return func(opts *Doc) {
		for _, vm := range vms {
			opts.VerificationMethod = append(opts.VerificationMethod, vm)
			opts.Authentication = append(opts.Authentication, vm.ID)
		}
	}
}

// WithKeyAgreement adds verification methods referenced from the keyAgreement relationship.
func WithKeyAgreement(vms ...VerificationMethod) DocOption {
	return func(opts *Doc) {
		for _, vm := range vms {
			opts.VerificationMethod = append(opts.VerificationMethod, vm)
			opts.KeyAgreement = append(opts.KeyAgreement, vm.ID)
		}
	}
}

// WithService adds services to the document.
func WithService(svc ...Service) DocOption {
	return func(opts *Doc) {
		opts.Service = append(opts.Service, svc...)
	}
}

// BuildDoc creates the DID Doc from options.
func BuildDoc(id string, opts ...DocOption) *Doc {
	doc := &Doc{Context: []string{ContextV1}, ID: id}

	for _, option := range opts {
		option(doc)
	}

	return doc
}
