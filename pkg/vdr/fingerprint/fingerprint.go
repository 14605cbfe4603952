/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fingerprint

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

// Multicodec codes of the supported key types.
// source: https://github.com/multiformats/multicodec/blob/master/table.csv.
const (
	X25519PubKeyMultiCodec    = uint64(0xec)
	ED25519PubKeyMultiCodec   = uint64(0xed)
	Secp256k1PubKeyMultiCodec = uint64(0xe7)
	P256PubKeyMultiCodec      = uint64(0x1200)
	P384PubKeyMultiCodec      = uint64(0x1201)
	P521PubKeyMultiCodec      = uint64(0x1202)
	ED25519PrivKeyMultiCodec  = uint64(0x1300)
	X25519PrivKeyMultiCodec   = uint64(0x1302)
)

var errEmptyFingerprint = errors.New("empty fingerprint")

// CreateDIDKey creates a did:key ID using the multicodec key fingerprint as per the did:key format spec found at:
// https://w3c-ccg.github.io/did-method-key/#format.
func CreateDIDKey(pubKey []byte) (string, string) {
	return CreateDIDKeyByCode(ED25519PubKeyMultiCodec, pubKey)
}

// CreateDIDKeyByCode creates a did:key ID for a key of the given multicodec type.
func CreateDIDKeyByCode(code uint64, pubKey []byte) (string, string) {
	methodID := KeyFingerprint(code, pubKey)
	didKey := fmt.Sprintf("did:key:%s", methodID)
	keyID := fmt.Sprintf("%s#%s", didKey, methodID)

	return didKey, keyID
}

// KeyFingerprint generates a multicode fingerprint for pubKeyValue (raw key []byte).
// It is mainly used as the controller ID (methodSpecification ID) of a did key.
func KeyFingerprint(code uint64, pubKeyValue []byte) string {
	// base58-btc is the only encoding used by did:key and never fails.
	fp, _ := multibase.Encode(multibase.Base58BTC, Multicodec(code, pubKeyValue)) //nolint:errcheck

	return fp
}

// Multicodec prefixes value with the varint encoded code.
func Multicodec(code uint64, value []byte) []byte {
	prefix := varint.ToUvarint(code)

	buf := make([]byte, 0, len(prefix)+len(value))
	buf = append(buf, prefix...)

	return append(buf, value...)
}

// SplitMulticodec returns the varint code prefix of data and the remaining value.
func SplitMulticodec(data []byte) (uint64, []byte, error) {
	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return 0, nil, fmt.Errorf("read multicodec prefix: %w", err)
	}

	return code, data[n:], nil
}

// DecodeMultibase decodes a multibase multicodec value, such as a publicKeyMultibase entry.
func DecodeMultibase(value string) (uint64, []byte, error) {
	if value == "" {
		return 0, nil, errEmptyFingerprint
	}

	_, data, err := multibase.Decode(value)
	if err != nil {
		return 0, nil, fmt.Errorf("decode multibase: %w", err)
	}

	return SplitMulticodec(data)
}

// PubKeyFromFingerprint extracts the raw public key from a did:key fingerprint.
func PubKeyFromFingerprint(fingerprint string) ([]byte, uint64, error) {
	// did:key:MULTIBASE(base58-btc, MULTICODEC(public-key-type, raw-public-key-bytes))
	// https://w3c-ccg.github.io/did-method-key/#format
	if len(fingerprint) == 0 || fingerprint[0] != 'z' {
		return nil, 0, fmt.Errorf("unknown key encoding: '%s'", fingerprint)
	}

	code, pubKey, err := DecodeMultibase(fingerprint)
	if err != nil {
		return nil, 0, err
	}

	return pubKey, code, nil
}
