/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FromPrior is the claim set of a DID rotation: sub is the new DID, iss the prior one.
type FromPrior struct {
	Iss string
	Sub string
	Aud string
	Exp *time.Time
	Nbf *time.Time
	Iat *time.Time
	Jti string
}

type rawFromPrior struct {
	Iss string     `json:"iss,omitempty"`
	Sub string     `json:"sub,omitempty"`
	Aud audience   `json:"aud,omitempty"`
	Exp *epochTime `json:"exp,omitempty"`
	Nbf *epochTime `json:"nbf,omitempty"`
	Iat *epochTime `json:"iat,omitempty"`
	Jti string     `json:"jti,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f FromPrior) MarshalJSON() ([]byte, error) {
	return json.Marshal(&rawFromPrior{
		Iss: f.Iss,
		Sub: f.Sub,
		Aud: audience(f.Aud),
		Exp: newEpochTime(f.Exp),
		Nbf: newEpochTime(f.Nbf),
		Iat: newEpochTime(f.Iat),
		Jti: f.Jti,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FromPrior) UnmarshalJSON(data []byte) error {
	raw := &rawFromPrior{}
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}

	*f = FromPrior{
		Iss: raw.Iss,
		Sub: raw.Sub,
		Aud: string(raw.Aud),
		Exp: raw.Exp.timePtr(),
		Nbf: raw.Nbf.timePtr(),
		Iat: raw.Iat.timePtr(),
		Jti: raw.Jti,
	}

	return nil
}

// GetExpirationTime implements jwt.Claims.
func (f *FromPrior) GetExpirationTime() (*jwt.NumericDate, error) {
	return numericDate(f.Exp), nil
}

// GetIssuedAt implements jwt.Claims.
func (f *FromPrior) GetIssuedAt() (*jwt.NumericDate, error) {
	return numericDate(f.Iat), nil
}

// GetNotBefore implements jwt.Claims.
func (f *FromPrior) GetNotBefore() (*jwt.NumericDate, error) {
	return numericDate(f.Nbf), nil
}

// GetIssuer implements jwt.Claims.
func (f *FromPrior) GetIssuer() (string, error) {
	return f.Iss, nil
}

// GetSubject implements jwt.Claims.
func (f *FromPrior) GetSubject() (string, error) {
	return f.Sub, nil
}

// GetAudience implements jwt.Claims.
func (f *FromPrior) GetAudience() (jwt.ClaimStrings, error) {
	if f.Aud == "" {
		return nil, nil
	}

	return jwt.ClaimStrings{f.Aud}, nil
}

func numericDate(t *time.Time) *jwt.NumericDate {
	if t == nil {
		return nil
	}

	return jwt.NewNumericDate(*t)
}

// audience is written as a single string. An array is read as its first element.
type audience string

func (a *audience) UnmarshalJSON(data []byte) error {
	var list stringOrList
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}

	if len(list) > 0 {
		*a = audience(list[0])
	}

	return nil
}
