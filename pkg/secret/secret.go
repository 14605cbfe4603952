/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
)

const (
	privateKeyJwk       = "privateKeyJwk"
	privateKeyBase58    = "privateKeyBase58"
	privateKeyMultibase = "privateKeyMultibase"
)

// Secret is private key material owned by the local party. Material is encoded the same way as
// verification method material: JWK JSON, base58 text or multibase text.
type Secret struct {
	ID       string
	Type     string
	Material did.VerificationMaterial
}

// Resolver looks up local secrets.
type Resolver interface {
	// FindKey returns the secret with the given kid, or nil when the secret is unknown.
	FindKey(ctx context.Context, kid string) (*Secret, error)
	// FindKeys returns the subset of kids that have a secret, in input order.
	FindKeys(ctx context.Context, kids []string) ([]string, error)
}

type rawSecret struct {
	ID                  string          `json:"id"`
	Type                string          `json:"type"`
	PrivateKeyJwk       json.RawMessage `json:"privateKeyJwk,omitempty"`
	PrivateKeyBase58    string          `json:"privateKeyBase58,omitempty"`
	PrivateKeyMultibase string          `json:"privateKeyMultibase,omitempty"`
}

// MarshalJSON writes the secret in verification method form.
func (s *Secret) MarshalJSON() ([]byte, error) {
	raw := rawSecret{ID: s.ID, Type: s.Type}

	switch s.Material.Format {
	case did.MaterialJWK:
		raw.PrivateKeyJwk = s.Material.Value
	case did.MaterialBase58:
		raw.PrivateKeyBase58 = string(s.Material.Value)
	case did.MaterialMultibase:
		raw.PrivateKeyMultibase = string(s.Material.Value)
	default:
		return nil, fmt.Errorf("secret %s: unknown material format '%s'", s.ID, s.Material.Format)
	}

	return json.Marshal(raw)
}

// UnmarshalJSON reads a secret in verification method form. Exactly one material entry must be present.
func (s *Secret) UnmarshalJSON(data []byte) error {
	var raw rawSecret

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal secret: %w", err)
	}

	material, err := raw.material()
	if err != nil {
		return err
	}

	*s = Secret{ID: raw.ID, Type: raw.Type, Material: *material}

	return nil
}

func (r *rawSecret) material() (*did.VerificationMaterial, error) {
	if r.ID == "" {
		return nil, errors.New("secret id is required")
	}

	var materials []did.VerificationMaterial

	if len(r.PrivateKeyJwk) > 0 && string(r.PrivateKeyJwk) != "null" {
		materials = append(materials, did.VerificationMaterial{Format: did.MaterialJWK, Value: r.PrivateKeyJwk})
	}

	if r.PrivateKeyBase58 != "" {
		materials = append(materials, did.VerificationMaterial{
			Format: did.MaterialBase58, Value: []byte(r.PrivateKeyBase58),
		})
	}

	if r.PrivateKeyMultibase != "" {
		materials = append(materials, did.VerificationMaterial{
			Format: did.MaterialMultibase, Value: []byte(r.PrivateKeyMultibase),
		})
	}

	if len(materials) != 1 {
		return nil, fmt.Errorf("secret %s: expected exactly one of %s, %s, %s",
			r.ID, privateKeyJwk, privateKeyBase58, privateKeyMultibase)
	}

	return &materials[0], nil
}
