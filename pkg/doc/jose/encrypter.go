/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/ecdh"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

// Encrypter interface to Encrypt JWE messages.
type Encrypter interface {
	// Encrypt plaintext into a JWE addressed to every configured recipient.
	Encrypt(plaintext []byte) (*JSONWebEncryption, error)
}

// JWEEncrypt is responsible for encrypting a plaintext into a protected JWE.
// A sender key makes it authcrypt (ECDH-1PU+A256KW), otherwise anoncrypt (ECDH-ES+A256KW).
type JWEEncrypt struct {
	encAlg     EncAlg
	keyAlg     KeyAlg
	senderKey  *jwk.JWK
	recipients []*jwk.JWK
	cfg        *Config
}

// NewJWEEncrypt creates a new JWEEncrypt instance to build JWE with recipients.
// senderKey is used for authcrypt (to authenticate the sender), if nil JWEEncrypt assumes anoncrypt.
// All recipients and the sender must share the same key agreement curve.
func NewJWEEncrypt(encAlg EncAlg, senderKey *jwk.JWK, recipients []*jwk.JWK, cfg *Config) (*JWEEncrypt, error) {
	if len(recipients) == 0 {
		return nil, errors.New("jweencrypt: empty recipients keys, must have at least one recipient")
	}

	if _, err := cekSize(encAlg); err != nil {
		return nil, fmt.Errorf("jweencrypt: %w", err)
	}

	crv := recipients[0].Crv

	for _, r := range recipients {
		if r.Crv != crv {
			return nil, fmt.Errorf("jweencrypt: recipient %s curve '%s' differs from '%s'", r.KeyID, r.Crv, crv)
		}

		if r.KeyID == "" {
			return nil, errors.New("jweencrypt: recipient key without kid")
		}
	}

	if _, err := recipients[0].ECDHCurve(); err != nil {
		return nil, fmt.Errorf("jweencrypt: %w", err)
	}

	keyAlg := ECDHESA256KW

	if senderKey != nil {
		if senderKey.Crv != crv {
			return nil, fmt.Errorf("jweencrypt: sender curve '%s' differs from recipients curve '%s'", senderKey.Crv, crv)
		}

		if senderKey.KeyID == "" || !senderKey.IsPrivate() {
			return nil, errors.New("jweencrypt: sender key must have a kid and private material")
		}

		keyAlg = ECDH1PUA256KW
	}

	return &JWEEncrypt{
		encAlg:     encAlg,
		keyAlg:     keyAlg,
		senderKey:  senderKey,
		recipients: recipients,
		cfg:        cfg.orDefault(),
	}, nil
}

// Encrypt encrypts plaintext for all recipients and returns a JWE ready for General JSON serialization.
func (je *JWEEncrypt) Encrypt(plaintext []byte) (*JSONWebEncryption, error) {
	curve, err := je.recipients[0].ECDHCurve()
	if err != nil {
		return nil, fmt.Errorf("jweencrypt: %w", err)
	}

	epk, err := curve.GenerateKey(je.cfg.Rand)
	if err != nil {
		return nil, fmt.Errorf("jweencrypt: failed to generate ephemeral key: %w", err)
	}

	epkJWK, err := jwk.FromECDHPublicKey(je.recipients[0].Crv, epk.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("jweencrypt: %w", err)
	}

	kids := make([]string, len(je.recipients))
	for i, r := range je.recipients {
		kids[i] = r.KeyID
	}

	protectedHeaders := Headers{
		HeaderType:       EncryptedMediaType,
		HeaderAlgorithm:  string(je.keyAlg),
		HeaderEncryption: string(je.encAlg),
		HeaderEPK:        epkJWK,
		HeaderAPV:        RecipientsDigest(kids),
	}

	var apu []byte

	if je.senderKey != nil {
		apu = []byte(je.senderKey.KeyID)
		protectedHeaders[HeaderSenderKeyID] = je.senderKey.KeyID
		protectedHeaders[HeaderAPU] = base64.RawURLEncoding.EncodeToString(apu)
	}

	apv, _ := protectedHeaders.APV()

	protectedJSON, err := json.Marshal(protectedHeaders)
	if err != nil {
		return nil, fmt.Errorf("jweencrypt: failed to marshal protected headers: %w", err)
	}

	jwe := &JSONWebEncryption{
		ProtectedHeaders:   protectedHeaders,
		OrigProtectedHders: base64.RawURLEncoding.EncodeToString(protectedJSON),
	}

	cek, err := je.encryptContent(jwe, plaintext)
	if err != nil {
		return nil, err
	}

	for _, recipient := range je.recipients {
		encryptedKey, wrapErr := je.wrapCEK(epk, recipient, cek, apu, apv, []byte(jwe.Tag))
		if wrapErr != nil {
			return nil, fmt.Errorf("jweencrypt: failed to wrap cek for %s: %w", recipient.KeyID, wrapErr)
		}

		jwe.Recipients = append(jwe.Recipients, &Recipient{
			EncryptedKey: string(encryptedKey),
			Header:       &RecipientHeaders{KID: recipient.KeyID},
		})
	}

	return jwe, nil
}

func (je *JWEEncrypt) encryptContent(jwe *JSONWebEncryption, plaintext []byte) ([]byte, error) {
	size, err := cekSize(je.encAlg)
	if err != nil {
		return nil, fmt.Errorf("jweencrypt: %w", err)
	}

	cek := je.cfg.RandomBytes(uint32(size))

	aead, tagSize, err := contentCipher(je.encAlg, cek)
	if err != nil {
		return nil, fmt.Errorf("jweencrypt: failed to create content cipher: %w", err)
	}

	iv := je.cfg.RandomBytes(uint32(aead.NonceSize()))

	sealed := aead.Seal(nil, iv, plaintext, []byte(jwe.authData()))
	split := len(sealed) - tagSize

	jwe.IV = string(iv)
	jwe.Ciphertext = string(sealed[:split])
	jwe.Tag = string(sealed[split:])

	return cek, nil
}

func (je *JWEEncrypt) wrapCEK(ephemeral *ecdh.PrivateKey, recipient *jwk.JWK, cek, apu, apv, tag []byte) ([]byte, error) {
	recipientPub, err := recipient.ECDHPublicKey()
	if err != nil {
		return nil, err
	}

	var z []byte

	if je.senderKey != nil {
		senderPriv, senderErr := je.senderKey.ECDHPrivateKey()
		if senderErr != nil {
			return nil, senderErr
		}

		z, err = sharedSecret(ephemeral, recipientPub, senderPriv, recipientPub)
	} else {
		z, err = sharedSecret(ephemeral, recipientPub, nil, nil)
	}

	if err != nil {
		return nil, err
	}

	kek, err := deriveKEK(je.keyAlg, z, apu, apv, tag)
	if err != nil {
		return nil, err
	}

	return wrapKey(kek, cek)
}
