/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

// JSONWebSignature is a JWS in General JSON serialization (https://tools.ietf.org/html/rfc7515#section-7.2.1).
type JSONWebSignature struct {
	Payload    []byte
	Signatures []*Signature
}

// Signature is one signature of a JWS together with its headers.
type Signature struct {
	ProtectedHeaders   Headers
	UnprotectedHeaders Headers
	Signature          []byte

	origProtected string
}

type rawSignature struct {
	Protected string  `json:"protected,omitempty"`
	Header    Headers `json:"header,omitempty"`
	Signature string  `json:"signature"`
}

type rawJSONWebSignature struct {
	Payload    string         `json:"payload"`
	Signatures []rawSignature `json:"signatures,omitempty"`

	// flattened serialization members
	Protected string  `json:"protected,omitempty"`
	Header    Headers `json:"header,omitempty"`
	Signature string  `json:"signature,omitempty"`
}

// KeyID returns the kid of the signature, looking at the unprotected headers first.
func (s *Signature) KeyID() (string, bool) {
	if kid, ok := s.UnprotectedHeaders.KeyID(); ok {
		return kid, ok
	}

	return s.ProtectedHeaders.KeyID()
}

// Algorithm returns the protected alg of the signature.
func (s *Signature) Algorithm() (string, bool) {
	return s.ProtectedHeaders.Algorithm()
}

func (s *Signature) signingInput(payload []byte) string {
	return s.origProtected + "." + base64.RawURLEncoding.EncodeToString(payload)
}

// NewJWS signs payload with every key. Each signature gets protected {typ, alg} and unprotected {kid} headers.
func NewJWS(payload []byte, typ string, keys ...*jwk.JWK) (*JSONWebSignature, error) {
	if len(keys) == 0 {
		return nil, errors.New("jws: at least one signing key is required")
	}

	jws := &JSONWebSignature{Payload: payload}

	for _, key := range keys {
		alg, err := AlgForKey(key)
		if err != nil {
			return nil, fmt.Errorf("jws: %w", err)
		}

		protected := Headers{HeaderType: typ, HeaderAlgorithm: string(alg)}

		protectedJSON, err := json.Marshal(protected)
		if err != nil {
			return nil, fmt.Errorf("jws: marshal protected headers: %w", err)
		}

		sig := &Signature{
			ProtectedHeaders:   protected,
			UnprotectedHeaders: Headers{HeaderKeyID: key.KeyID},
			origProtected:      base64.RawURLEncoding.EncodeToString(protectedJSON),
		}

		_, sig.Signature, err = SignWithKey(sig.signingInput(payload), key)
		if err != nil {
			return nil, fmt.Errorf("jws: %w", err)
		}

		jws.Signatures = append(jws.Signatures, sig)
	}

	return jws, nil
}

// Verify checks the signature against payload with the public key.
func (s *Signature) Verify(payload []byte, key *jwk.JWK) error {
	alg, ok := s.Algorithm()
	if !ok {
		return errors.New("jws: missing alg header")
	}

	if err := VerifyWithKey(SigAlg(alg), s.signingInput(payload), s.Signature, key); err != nil {
		return fmt.Errorf("jws: invalid signature: %w", err)
	}

	return nil
}

// Serialize writes the JWS in General JSON serialization.
func (j *JSONWebSignature) Serialize() ([]byte, error) {
	raw := rawJSONWebSignature{Payload: base64.RawURLEncoding.EncodeToString(j.Payload)}

	for _, s := range j.Signatures {
		raw.Signatures = append(raw.Signatures, rawSignature{
			Protected: s.origProtected,
			Header:    s.UnprotectedHeaders,
			Signature: base64.RawURLEncoding.EncodeToString(s.Signature),
		})
	}

	return json.Marshal(raw)
}

// ParseJWS reads a JWS in General or Flattened JSON serialization.
func ParseJWS(data []byte) (*JSONWebSignature, error) {
	raw := rawJSONWebSignature{}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JWS: %w", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(raw.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid JWS payload: %w", err)
	}

	sigs := raw.Signatures
	if len(sigs) == 0 && raw.Signature != "" {
		sigs = []rawSignature{{Protected: raw.Protected, Header: raw.Header, Signature: raw.Signature}}
	}

	if len(sigs) == 0 {
		return nil, errors.New("invalid JWS: no signatures")
	}

	jws := &JSONWebSignature{Payload: payload}

	for i, rs := range sigs {
		sig, err := parseSignature(rs)
		if err != nil {
			return nil, fmt.Errorf("invalid JWS signature %d: %w", i, err)
		}

		jws.Signatures = append(jws.Signatures, sig)
	}

	return jws, nil
}

func parseSignature(rs rawSignature) (*Signature, error) {
	protectedJSON, err := base64.RawURLEncoding.DecodeString(rs.Protected)
	if err != nil {
		return nil, err
	}

	protected := Headers{}

	if err = json.Unmarshal(protectedJSON, &protected); err != nil {
		return nil, err
	}

	sig, err := base64.RawURLEncoding.DecodeString(rs.Signature)
	if err != nil {
		return nil, err
	}

	unprotected := rs.Header
	if unprotected == nil {
		unprotected = Headers{}
	}

	return &Signature{
		ProtectedHeaders:   protected,
		UnprotectedHeaders: unprotected,
		Signature:          sig,
		origProtected:      rs.Protected,
	}, nil
}
