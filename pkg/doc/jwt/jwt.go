/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

const (
	// TypeJWT defines JWT type.
	TypeJWT = "JWT"
)

// Claims is the claims set of a token.
type Claims = jwt.Claims

// KeyResolver returns the verification key referenced by a kid header.
type KeyResolver func(kid string) (*jwk.JWK, error)

// JSONWebToken defines JSON Web Token (https://tools.ietf.org/html/rfc7519)
type JSONWebToken struct {
	Headers jose.Headers
	Claims  Claims

	serialized string
}

// KeyID returns the kid header.
func (j *JSONWebToken) KeyID() string {
	return j.LookupStringHeader(jose.HeaderKeyID)
}

// LookupStringHeader makes look up of particular header with string value.
func (j *JSONWebToken) LookupStringHeader(name string) string {
	if headerValue, ok := j.Headers[name]; ok {
		if headerStrValue, ok := headerValue.(string); ok {
			return headerStrValue
		}
	}

	return ""
}

// Serialize returns the compact serialization of the token.
func (j *JSONWebToken) Serialize() string {
	return j.serialized
}

// NewSigned creates a compact JWS signed with key. The kid header is set to key.KeyID.
func NewSigned(claims Claims, key *jwk.JWK) (*JSONWebToken, error) {
	alg, err := jose.AlgForKey(key)
	if err != nil {
		return nil, fmt.Errorf("create JWT: %w", err)
	}

	method := jwt.GetSigningMethod(string(alg))
	if method == nil {
		return nil, fmt.Errorf("create JWT: signing method '%s' not registered", alg)
	}

	sk, err := key.SigningKey()
	if err != nil {
		return nil, fmt.Errorf("create JWT: %w", err)
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header[jose.HeaderKeyID] = key.KeyID

	serialized, err := token.SignedString(sk)
	if err != nil {
		return nil, fmt.Errorf("sign JWT: %w", err)
	}

	return &JSONWebToken{Headers: jose.Headers(token.Header), Claims: claims, serialized: serialized}, nil
}

// Parse verifies a compact JWS with the key resolved from its kid header and decodes its claims into claims.
// Time based claims are not validated.
func Parse(serialized string, claims Claims, resolve KeyResolver) (*JSONWebToken, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{
			string(jose.EdDSA), string(jose.ES256), string(jose.ES384), string(jose.ES512), string(jose.ES256K),
		}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(serialized, claims, func(token *jwt.Token) (interface{}, error) {
		if err := checkHeaders(token.Header); err != nil {
			return nil, err
		}

		kid, ok := token.Header[jose.HeaderKeyID].(string)
		if !ok || kid == "" {
			return nil, errors.New("kid header is not defined")
		}

		key, err := resolve(kid)
		if err != nil {
			return nil, err
		}

		if alg, err := jose.AlgForKey(key); err != nil || string(alg) != token.Method.Alg() {
			return nil, fmt.Errorf("alg '%s' does not match key %s", token.Method.Alg(), kid)
		}

		return key.VerificationKey()
	})
	if err != nil {
		return nil, fmt.Errorf("parse JWT: %w", err)
	}

	return &JSONWebToken{Headers: jose.Headers(token.Header), Claims: claims, serialized: serialized}, nil
}

// ParseUnverified decodes headers and claims without checking the signature.
func ParseUnverified(serialized string, claims Claims) (*JSONWebToken, error) {
	token, _, err := jwt.NewParser().ParseUnverified(serialized, claims)
	if err != nil {
		return nil, fmt.Errorf("parse JWT: %w", err)
	}

	if err = checkHeaders(token.Header); err != nil {
		return nil, fmt.Errorf("check JWT headers: %w", err)
	}

	return &JSONWebToken{Headers: jose.Headers(token.Header), Claims: claims, serialized: serialized}, nil
}

// IsJWS checks if JWT is a JWS of valid structure.
func IsJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == 3 &&
		isValidJSON(parts[0]) &&
		isValidJSON(parts[1]) &&
		parts[2] != ""
}

func isValidJSON(s string) bool {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return false
	}

	var j map[string]interface{}
	err = json.Unmarshal(b, &j)

	return err == nil
}

func checkHeaders(headers map[string]interface{}) error {
	if _, ok := headers[jose.HeaderAlgorithm]; !ok {
		return errors.New("alg header is not defined")
	}

	typ, ok := headers[jose.HeaderType]
	if ok && typ != TypeJWT {
		return errors.New("typ is not JWT")
	}

	cty, ok := headers[jose.HeaderContentType]
	if ok && cty == TypeJWT { // https://tools.ietf.org/html/rfc7519#section-5.2
		return errors.New("nested JWT is not supported")
	}

	return nil
}
