/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

// ErrRecipientNotFound is returned when the JWE has no recipient entry for the decrypting key.
var ErrRecipientNotFound = errors.New("jwedecrypt: recipient not found")

// Decrypt decrypts a JWE for recipientKey. senderKey is required when the JWE was built with ECDH-1PU+A256KW
// and ignored otherwise.
func Decrypt(jwe *JSONWebEncryption, recipientKey, senderKey *jwk.JWK) ([]byte, error) {
	if jwe == nil {
		return nil, errors.New("jwedecrypt: jwe is nil")
	}

	alg, enc, err := validateProtectedHeaders(jwe.ProtectedHeaders)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := findRecipient(jwe, recipientKey.KeyID)
	if err != nil {
		return nil, err
	}

	epk, ok := jwe.ProtectedHeaders.EPK()
	if !ok {
		return nil, errors.New("jwedecrypt: missing or invalid epk header")
	}

	if epk.Crv != recipientKey.Crv {
		return nil, fmt.Errorf("jwedecrypt: epk curve '%s' does not match recipient key curve '%s'",
			epk.Crv, recipientKey.Crv)
	}

	z, err := recipientSharedSecret(alg, epk, recipientKey, senderKey)
	if err != nil {
		return nil, err
	}

	apu, _ := jwe.ProtectedHeaders.APU()
	apv, _ := jwe.ProtectedHeaders.APV()

	kek, err := deriveKEK(alg, z, apu, apv, []byte(jwe.Tag))
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: %w", err)
	}

	cek, err := unwrapKey(kek, encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: failed to unwrap cek: %w", err)
	}

	aead, _, err := contentCipher(enc, cek)
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: %w", err)
	}

	if len(jwe.IV) != aead.NonceSize() {
		return nil, fmt.Errorf("jwedecrypt: invalid iv size %d", len(jwe.IV))
	}

	sealed := append([]byte(jwe.Ciphertext), jwe.Tag...)

	plaintext, err := aead.Open(nil, []byte(jwe.IV), sealed, []byte(jwe.authData()))
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: failed to decrypt content: %w", err)
	}

	return plaintext, nil
}

func validateProtectedHeaders(headers Headers) (KeyAlg, EncAlg, error) {
	alg, ok := headers.Algorithm()
	if !ok {
		return "", "", errors.New("jwedecrypt: missing alg header")
	}

	if KeyAlg(alg) != ECDHESA256KW && KeyAlg(alg) != ECDH1PUA256KW {
		return "", "", fmt.Errorf("jwedecrypt: key management algorithm '%s' not supported", alg)
	}

	enc, ok := headers.Encryption()
	if !ok {
		return "", "", errors.New("jwedecrypt: missing enc header")
	}

	if _, err := cekSize(EncAlg(enc)); err != nil {
		return "", "", fmt.Errorf("jwedecrypt: %w", err)
	}

	return KeyAlg(alg), EncAlg(enc), nil
}

func findRecipient(jwe *JSONWebEncryption, kid string) ([]byte, error) {
	for _, r := range jwe.Recipients {
		if r.Header != nil && r.Header.KID == kid {
			return []byte(r.EncryptedKey), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrRecipientNotFound, kid)
}

func recipientSharedSecret(alg KeyAlg, epk, recipientKey, senderKey *jwk.JWK) ([]byte, error) {
	epkPub, err := epk.ECDHPublicKey()
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: invalid epk: %w", err)
	}

	recipientPriv, err := recipientKey.ECDHPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: %w", err)
	}

	if alg != ECDH1PUA256KW {
		return sharedSecret(recipientPriv, epkPub, nil, nil)
	}

	if senderKey == nil {
		return nil, errors.New("jwedecrypt: sender key is required for authcrypt")
	}

	if senderKey.Crv != recipientKey.Crv {
		return nil, fmt.Errorf("jwedecrypt: sender curve '%s' does not match recipient curve '%s'",
			senderKey.Crv, recipientKey.Crv)
	}

	senderPub, err := senderKey.ECDHPublicKey()
	if err != nil {
		return nil, fmt.Errorf("jwedecrypt: invalid sender key: %w", err)
	}

	return sharedSecret(recipientPriv, epkPub, recipientPriv, senderPub)
}
