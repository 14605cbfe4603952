/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/go-jose/go-jose/v3"
)

// Key types.
const (
	OKPType = "OKP"
	ECType  = "EC"
)

// Curves supported by DIDComm key material.
const (
	X25519    = "X25519"
	Ed25519   = "Ed25519"
	P256      = "P-256"
	P384      = "P-384"
	P521      = "P-521"
	Secp256k1 = "secp256k1"
)

const (
	okpSize       = 32
	secp256k1Size = 32
)

// ErrInvalidKey is returned when passed JWK is invalid.
var ErrInvalidKey = errors.New("invalid JWK")

// JWK (JSON Web Key) is a JSON data structure that represents a cryptographic key.
//
// Key holds ed25519.PublicKey, ed25519.PrivateKey, *ecdsa.PublicKey or *ecdsa.PrivateKey for the curves
// go-jose supports. X25519 keys are held as *ecdh.PublicKey or *ecdh.PrivateKey and secp256k1 keys as
// *secp256k1.PublicKey or *secp256k1.PrivateKey.
type JWK struct {
	jose.JSONWebKey

	Kty string
	Crv string
}

// rawJWK is the JSON form of the keys go-jose does not read or write.
type rawJWK struct {
	Use string `json:"use,omitempty"`
	Kty string `json:"kty,omitempty"`
	Kid string `json:"kid,omitempty"`
	Crv string `json:"crv,omitempty"`
	Alg string `json:"alg,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
}

// Parse decodes JSON bytes into a JWK.
func Parse(data []byte) (*JWK, error) {
	j := &JWK{}

	if err := json.Unmarshal(data, j); err != nil {
		return nil, err
	}

	return j, nil
}

// UnmarshalJSON reads a key from its JSON representation.
func (j *JWK) UnmarshalJSON(data []byte) error {
	raw := &rawJWK{}

	if err := json.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("unmarshal JWK: %w", err)
	}

	x, y, d, err := raw.members()
	if err != nil {
		return err
	}

	switch raw.Crv {
	case X25519:
		return j.setX25519(raw, x, d)
	case Secp256k1:
		return j.setSecp256k1(raw, x, y, d)
	case Ed25519, P256, P384, P521:
	default:
		return fmt.Errorf("%w: unsupported curve '%s'", ErrInvalidKey, raw.Crv)
	}

	if err = j.JSONWebKey.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	j.Kty, j.Crv = raw.Kty, raw.Crv

	return j.checkEd25519()
}

func (r *rawJWK) members() (x, y, d []byte, err error) {
	if x, err = decodeMember(r.X); err != nil {
		return nil, nil, nil, fmt.Errorf("unmarshal JWK x: %w", err)
	}

	if y, err = decodeMember(r.Y); err != nil {
		return nil, nil, nil, fmt.Errorf("unmarshal JWK y: %w", err)
	}

	if d, err = decodeMember(r.D); err != nil {
		return nil, nil, nil, fmt.Errorf("unmarshal JWK d: %w", err)
	}

	return x, y, d, nil
}

func (j *JWK) setX25519(raw *rawJWK, x, d []byte) error {
	if raw.Kty != OKPType {
		return fmt.Errorf("%w: X25519 key must be OKP", ErrInvalidKey)
	}

	key, err := x25519Key(x, d)
	if err != nil {
		return err
	}

	j.JSONWebKey = jose.JSONWebKey{Key: key, KeyID: raw.Kid, Algorithm: raw.Alg, Use: raw.Use}
	j.Kty, j.Crv = OKPType, X25519

	return nil
}

func (j *JWK) setSecp256k1(raw *rawJWK, x, y, d []byte) error {
	if raw.Kty != ECType || len(x) == 0 || len(y) == 0 {
		return fmt.Errorf("%w: secp256k1 key must be EC with x and y", ErrInvalidKey)
	}

	point := make([]byte, 1+2*secp256k1Size)
	point[0] = 4
	new(big.Int).SetBytes(x).FillBytes(point[1 : 1+secp256k1Size])
	new(big.Int).SetBytes(y).FillBytes(point[1+secp256k1Size:])

	pub, err := secp256k1.ParsePubKey(point)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	var key interface{} = pub

	if len(d) > 0 {
		priv := secp256k1.PrivKeyFromBytes(d)
		if !priv.PubKey().IsEqual(pub) {
			return fmt.Errorf("%w: secp256k1 d does not match x and y", ErrInvalidKey)
		}

		key = priv
	}

	j.JSONWebKey = jose.JSONWebKey{Key: key, KeyID: raw.Kid, Algorithm: raw.Alg, Use: raw.Use}
	j.Kty, j.Crv = ECType, Secp256k1

	return nil
}

// checkEd25519 rejects the Ed25519 keys go-jose accepts without checking their sizes.
func (j *JWK) checkEd25519() error {
	switch key := j.Key.(type) {
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: Ed25519 x must be %d bytes", ErrInvalidKey, ed25519.PublicKeySize)
		}
	case ed25519.PrivateKey:
		if len(key) != ed25519.PrivateKeySize ||
			!bytes.Equal(ed25519.NewKeyFromSeed(key.Seed())[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
			return fmt.Errorf("%w: Ed25519 d does not match x", ErrInvalidKey)
		}
	}

	return nil
}

// MarshalJSON writes the key as a JSON object.
func (j JWK) MarshalJSON() ([]byte, error) {
	raw := rawJWK{Kid: j.KeyID, Alg: j.Algorithm, Use: j.Use}

	switch key := j.Key.(type) {
	case *ecdh.PublicKey:
		raw.Kty, raw.Crv, raw.X = OKPType, X25519, encodeMember(key.Bytes())
	case *ecdh.PrivateKey:
		raw.Kty, raw.Crv = OKPType, X25519
		raw.X, raw.D = encodeMember(key.PublicKey().Bytes()), encodeMember(key.Bytes())
	case *secp256k1.PublicKey:
		raw.Kty, raw.Crv = ECType, Secp256k1
		raw.X, raw.Y = secp256k1Members(key)
	case *secp256k1.PrivateKey:
		raw.Kty, raw.Crv = ECType, Secp256k1
		raw.X, raw.Y = secp256k1Members(key.PubKey())
		raw.D = encodeMember(key.Serialize())
	default:
		return j.JSONWebKey.MarshalJSON()
	}

	return json.Marshal(raw)
}

func secp256k1Members(pub *secp256k1.PublicKey) (string, string) {
	uncompressed := pub.SerializeUncompressed()

	return encodeMember(uncompressed[1 : 1+secp256k1Size]), encodeMember(uncompressed[1+secp256k1Size:])
}

func decodeMember(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	return base64.RawURLEncoding.DecodeString(s)
}

func encodeMember(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// IsPrivate reports whether the key carries private material.
func (j *JWK) IsPrivate() bool {
	switch j.Key.(type) {
	case ed25519.PrivateKey, *ecdsa.PrivateKey, *ecdh.PrivateKey, *secp256k1.PrivateKey:
		return true
	default:
		return false
	}
}

// Public returns a copy of the key without private material.
func (j *JWK) Public() *JWK {
	pub := &JWK{
		JSONWebKey: jose.JSONWebKey{Key: j.Key, KeyID: j.KeyID, Algorithm: j.Algorithm, Use: j.Use},
		Kty:        j.Kty,
		Crv:        j.Crv,
	}

	switch key := j.Key.(type) {
	case ed25519.PrivateKey:
		pub.Key = ed25519.PublicKey(key[ed25519.SeedSize:])
	case *ecdsa.PrivateKey:
		pub.Key = &key.PublicKey
	case *ecdh.PrivateKey:
		pub.Key = key.PublicKey()
	case *secp256k1.PrivateKey:
		pub.Key = key.PubKey()
	}

	return pub
}

// PublicKeyBytes returns the raw public key: x for OKP keys and the uncompressed point for EC keys.
func (j *JWK) PublicKeyBytes() ([]byte, error) {
	switch key := j.Public().Key.(type) {
	case ed25519.PublicKey:
		return append([]byte{}, key...), nil
	case *ecdh.PublicKey:
		return key.Bytes(), nil
	case *secp256k1.PublicKey:
		return key.SerializeUncompressed(), nil
	case *ecdsa.PublicKey:
		pub, err := key.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		return pub.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, j.Key)
	}
}

// PrivateKeyBytes returns the raw private key: the seed of Ed25519 keys and the scalar of the other curves.
func (j *JWK) PrivateKeyBytes() ([]byte, error) {
	switch key := j.Key.(type) {
	case ed25519.PrivateKey:
		return key.Seed(), nil
	case *ecdh.PrivateKey:
		return key.Bytes(), nil
	case *secp256k1.PrivateKey:
		return key.Serialize(), nil
	case *ecdsa.PrivateKey:
		priv, err := key.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		return priv.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: key %s has no private material", ErrInvalidKey, j.KeyID)
	}
}

// NewOKP builds an OKP key (X25519 or Ed25519) from raw public and optional private bytes.
// The private bytes of an Ed25519 key are its seed.
func NewOKP(kid, crv string, x, d []byte) (*JWK, error) {
	var (
		key interface{}
		err error
	)

	switch crv {
	case X25519:
		key, err = x25519Key(x, d)
	case Ed25519:
		key, err = ed25519Key(x, d)
	default:
		err = fmt.Errorf("%w: '%s' is not an OKP curve", ErrInvalidKey, crv)
	}

	if err != nil {
		return nil, err
	}

	return &JWK{JSONWebKey: jose.JSONWebKey{Key: key, KeyID: kid}, Kty: OKPType, Crv: crv}, nil
}

func x25519Key(x, d []byte) (interface{}, error) {
	pub, err := ecdh.X25519().NewPublicKey(x)
	if err != nil {
		return nil, fmt.Errorf("%w: X25519 x: %v", ErrInvalidKey, err)
	}

	if len(d) == 0 {
		return pub, nil
	}

	priv, err := ecdh.X25519().NewPrivateKey(d)
	if err != nil {
		return nil, fmt.Errorf("%w: X25519 d: %v", ErrInvalidKey, err)
	}

	if !priv.PublicKey().Equal(pub) {
		return nil, fmt.Errorf("%w: X25519 d does not match x", ErrInvalidKey)
	}

	return priv, nil
}

func ed25519Key(x, d []byte) (interface{}, error) {
	if len(x) != okpSize {
		return nil, fmt.Errorf("%w: Ed25519 x must be %d bytes", ErrInvalidKey, okpSize)
	}

	if len(d) == 0 {
		return ed25519.PublicKey(x), nil
	}

	if len(d) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: Ed25519 seed must be %d bytes", ErrInvalidKey, ed25519.SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(d)
	if !bytes.Equal(priv[ed25519.SeedSize:], x) {
		return nil, fmt.Errorf("%w: Ed25519 d does not match x", ErrInvalidKey)
	}

	return priv, nil
}

// FromECDSA builds an EC key from a NIST curve ECDSA key.
func FromECDSA(kid string, pub *ecdsa.PublicKey, priv *ecdsa.PrivateKey) (*JWK, error) {
	crv, err := nistCurveName(pub.Curve)
	if err != nil {
		return nil, err
	}

	var key interface{} = pub
	if priv != nil {
		key = priv
	}

	return &JWK{JSONWebKey: jose.JSONWebKey{Key: key, KeyID: kid}, Kty: ECType, Crv: crv}, nil
}

// FromSecp256k1 builds an EC key on secp256k1.
func FromSecp256k1(kid string, pub *secp256k1.PublicKey, priv *secp256k1.PrivateKey) *JWK {
	var key interface{} = pub
	if priv != nil {
		key = priv
	}

	return &JWK{JSONWebKey: jose.JSONWebKey{Key: key, KeyID: kid}, Kty: ECType, Crv: Secp256k1}
}

// FromECDHPublicKey builds a public key from an ECDH public key on crv.
func FromECDHPublicKey(crv string, pub *ecdh.PublicKey) (*JWK, error) {
	if crv == X25519 {
		return &JWK{JSONWebKey: jose.JSONWebKey{Key: pub}, Kty: OKPType, Crv: X25519}, nil
	}

	curve, err := ellipticCurve(crv)
	if err != nil {
		return nil, err
	}

	raw := pub.Bytes()
	size := (len(raw) - 1) / 2 //nolint:gomnd

	ecPub := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(raw[1 : 1+size]),
		Y:     new(big.Int).SetBytes(raw[1+size:]),
	}

	return &JWK{JSONWebKey: jose.JSONWebKey{Key: ecPub}, Kty: ECType, Crv: crv}, nil
}

// FromECDHPrivateKey builds a private key from an ECDH private key on crv.
func FromECDHPrivateKey(crv string, priv *ecdh.PrivateKey) (*JWK, error) {
	pub, err := FromECDHPublicKey(crv, priv.PublicKey())
	if err != nil {
		return nil, err
	}

	switch key := pub.Key.(type) {
	case *ecdsa.PublicKey:
		pub.Key = &ecdsa.PrivateKey{PublicKey: *key, D: new(big.Int).SetBytes(priv.Bytes())}
	default:
		pub.Key = priv
	}

	return pub, nil
}

func nistCurveName(c elliptic.Curve) (string, error) {
	switch c {
	case elliptic.P256():
		return P256, nil
	case elliptic.P384():
		return P384, nil
	case elliptic.P521():
		return P521, nil
	default:
		return "", fmt.Errorf("%w: unsupported elliptic curve", ErrInvalidKey)
	}
}

func ellipticCurve(crv string) (elliptic.Curve, error) {
	switch crv {
	case P256:
		return elliptic.P256(), nil
	case P384:
		return elliptic.P384(), nil
	case P521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("%w: '%s' is not a NIST curve", ErrInvalidKey, crv)
	}
}

// ECDHCurve returns the key agreement curve of the key.
func (j *JWK) ECDHCurve() (ecdh.Curve, error) {
	switch j.Crv {
	case X25519:
		return ecdh.X25519(), nil
	case P256:
		return ecdh.P256(), nil
	case P384:
		return ecdh.P384(), nil
	case P521:
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("%w: curve '%s' can not be used for key agreement", ErrInvalidKey, j.Crv)
	}
}

// ECDHPublicKey returns the key agreement public key.
func (j *JWK) ECDHPublicKey() (*ecdh.PublicKey, error) {
	switch key := j.Public().Key.(type) {
	case *ecdh.PublicKey:
		return key, nil
	case *ecdsa.PublicKey:
		pub, err := key.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		return pub, nil
	default:
		return nil, fmt.Errorf("%w: curve '%s' can not be used for key agreement", ErrInvalidKey, j.Crv)
	}
}

// ECDHPrivateKey returns the key agreement private key.
func (j *JWK) ECDHPrivateKey() (*ecdh.PrivateKey, error) {
	switch key := j.Key.(type) {
	case *ecdh.PrivateKey:
		return key, nil
	case *ecdsa.PrivateKey:
		priv, err := key.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		return priv, nil
	}

	if !j.IsPrivate() {
		return nil, fmt.Errorf("%w: key %s has no private material", ErrInvalidKey, j.KeyID)
	}

	return nil, fmt.Errorf("%w: curve '%s' can not be used for key agreement", ErrInvalidKey, j.Crv)
}

// SigningKey returns the private key in the form expected by the signing methods:
// ed25519.PrivateKey, *ecdsa.PrivateKey or *secp256k1.PrivateKey.
func (j *JWK) SigningKey() (crypto.PrivateKey, error) {
	switch key := j.Key.(type) {
	case ed25519.PrivateKey, *ecdsa.PrivateKey, *secp256k1.PrivateKey:
		return key, nil
	}

	if !j.IsPrivate() {
		return nil, fmt.Errorf("%w: key %s has no private material", ErrInvalidKey, j.KeyID)
	}

	return nil, fmt.Errorf("%w: curve '%s' can not be used for signing", ErrInvalidKey, j.Crv)
}

// VerificationKey returns the public key in the form expected by the signing methods:
// ed25519.PublicKey, *ecdsa.PublicKey or *secp256k1.PublicKey.
func (j *JWK) VerificationKey() (crypto.PublicKey, error) {
	switch key := j.Public().Key.(type) {
	case ed25519.PublicKey, *ecdsa.PublicKey, *secp256k1.PublicKey:
		return key, nil
	default:
		return nil, fmt.Errorf("%w: curve '%s' can not be used for signing", ErrInvalidKey, j.Crv)
	}
}
