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
)

// JSONWebEncryption represents a JWE as defined in https://tools.ietf.org/html/rfc7516.
// Binary members (IV, Ciphertext, Tag, AAD and encrypted keys) are held decoded.
type JSONWebEncryption struct {
	ProtectedHeaders   Headers
	OrigProtectedHders string
	UnprotectedHeaders Headers
	Recipients         []*Recipient
	AAD                string
	IV                 string
	Ciphertext         string
	Tag                string
}

// Recipient is a recipient of a JWE including the shared encryption key.
type Recipient struct {
	EncryptedKey string            `json:"encrypted_key,omitempty"`
	Header       *RecipientHeaders `json:"header,omitempty"`
}

// RecipientHeaders are the recipient headers.
type RecipientHeaders struct {
	KID string `json:"kid,omitempty"`
}

// rawJSONWebEncryption represents a RAW JWE that is used for serialization/deserialization.
type rawJSONWebEncryption struct {
	ProtectedHeaders   string          `json:"protected,omitempty"`
	UnprotectedHeaders json.RawMessage `json:"unprotected,omitempty"`
	Recipients         []rawRecipient  `json:"recipients"`
	AAD                string          `json:"aad,omitempty"`
	IV                 string          `json:"iv,omitempty"`
	Ciphertext         string          `json:"ciphertext,omitempty"`
	Tag                string          `json:"tag,omitempty"`
}

type rawRecipient struct {
	EncryptedKey string            `json:"encrypted_key,omitempty"`
	Header       *RecipientHeaders `json:"header,omitempty"`
}

var (
	errEmptyCiphertext = errors.New("ciphertext cannot be empty")
	errNoRecipients    = errors.New("recipients cannot be empty")
	errNoProtected     = errors.New("protected headers cannot be empty")
)

type marshalFunc func(interface{}) ([]byte, error)

// Serialize serializes the given JWE into JSON as defined in https://tools.ietf.org/html/rfc7516#section-7.2.
func (e *JSONWebEncryption) Serialize(marshal marshalFunc) (string, error) {
	b64ProtectedHeaders, unprotectedHeaders, err := e.prepareHeaders(marshal)
	if err != nil {
		return "", err
	}

	if e.Ciphertext == "" {
		return "", errEmptyCiphertext
	}

	recipients := make([]rawRecipient, len(e.Recipients))
	for i, r := range e.Recipients {
		recipients[i] = rawRecipient{
			EncryptedKey: base64.RawURLEncoding.EncodeToString([]byte(r.EncryptedKey)),
			Header:       r.Header,
		}
	}

	preparedJWE := rawJSONWebEncryption{
		ProtectedHeaders:   b64ProtectedHeaders,
		UnprotectedHeaders: unprotectedHeaders,
		Recipients:         recipients,
		AAD:                base64.RawURLEncoding.EncodeToString([]byte(e.AAD)),
		IV:                 base64.RawURLEncoding.EncodeToString([]byte(e.IV)),
		Ciphertext:         base64.RawURLEncoding.EncodeToString([]byte(e.Ciphertext)),
		Tag:                base64.RawURLEncoding.EncodeToString([]byte(e.Tag)),
	}

	serializedJWE, err := marshal(preparedJWE)
	if err != nil {
		return "", err
	}

	return string(serializedJWE), nil
}

func (e *JSONWebEncryption) prepareHeaders(marshal marshalFunc) (string, json.RawMessage, error) {
	b64ProtectedHeaders := e.OrigProtectedHders

	if b64ProtectedHeaders == "" && e.ProtectedHeaders != nil {
		protectedHeadersJSON, err := marshal(e.ProtectedHeaders)
		if err != nil {
			return "", nil, err
		}

		b64ProtectedHeaders = base64.RawURLEncoding.EncodeToString(protectedHeadersJSON)
	}

	var unprotectedHeaders json.RawMessage

	if e.UnprotectedHeaders != nil {
		unprotectedHeadersJSON, err := marshal(e.UnprotectedHeaders)
		if err != nil {
			return "", nil, err
		}

		unprotectedHeaders = unprotectedHeadersJSON
	}

	return b64ProtectedHeaders, unprotectedHeaders, nil
}

// Deserialize parses a JWE in General JSON serialization.
func Deserialize(serializedJWE string) (*JSONWebEncryption, error) {
	raw := rawJSONWebEncryption{}

	if err := json.Unmarshal([]byte(serializedJWE), &raw); err != nil {
		return nil, fmt.Errorf("invalid JWE: %w", err)
	}

	if raw.ProtectedHeaders == "" {
		return nil, errNoProtected
	}

	if raw.Ciphertext == "" {
		return nil, errEmptyCiphertext
	}

	if len(raw.Recipients) == 0 {
		return nil, errNoRecipients
	}

	protectedJSON, err := base64.RawURLEncoding.DecodeString(raw.ProtectedHeaders)
	if err != nil {
		return nil, fmt.Errorf("invalid JWE protected headers: %w", err)
	}

	protected := Headers{}

	if err = json.Unmarshal(protectedJSON, &protected); err != nil {
		return nil, fmt.Errorf("invalid JWE protected headers: %w", err)
	}

	var unprotected Headers

	if len(raw.UnprotectedHeaders) > 0 {
		if err = json.Unmarshal(raw.UnprotectedHeaders, &unprotected); err != nil {
			return nil, fmt.Errorf("invalid JWE unprotected headers: %w", err)
		}
	}

	jwe := &JSONWebEncryption{
		ProtectedHeaders:   protected,
		OrigProtectedHders: raw.ProtectedHeaders,
		UnprotectedHeaders: unprotected,
	}

	for i, r := range raw.Recipients {
		encryptedKey, decErr := base64.RawURLEncoding.DecodeString(r.EncryptedKey)
		if decErr != nil {
			return nil, fmt.Errorf("invalid JWE recipient %d encrypted key: %w", i, decErr)
		}

		jwe.Recipients = append(jwe.Recipients, &Recipient{EncryptedKey: string(encryptedKey), Header: r.Header})
	}

	members := []struct {
		name string
		src  string
		dst  *string
	}{
		{"aad", raw.AAD, &jwe.AAD},
		{"iv", raw.IV, &jwe.IV},
		{"ciphertext", raw.Ciphertext, &jwe.Ciphertext},
		{"tag", raw.Tag, &jwe.Tag},
	}

	for _, m := range members {
		b, decErr := base64.RawURLEncoding.DecodeString(m.src)
		if decErr != nil {
			return nil, fmt.Errorf("invalid JWE %s: %w", m.name, decErr)
		}

		*m.dst = string(b)
	}

	return jwe, nil
}

// KeyIDs returns the kid of every recipient, in order.
func (e *JSONWebEncryption) KeyIDs() []string {
	kids := make([]string, 0, len(e.Recipients))

	for _, r := range e.Recipients {
		if r.Header != nil && r.Header.KID != "" {
			kids = append(kids, r.Header.KID)
		}
	}

	return kids
}

// authData returns ASCII(BASE64URL(protected)) optionally followed by "." and BASE64URL(aad).
func (e *JSONWebEncryption) authData() string {
	if e.AAD == "" {
		return e.OrigProtectedHders
	}

	return e.OrigProtectedHders + "." + base64.RawURLEncoding.EncodeToString([]byte(e.AAD))
}
