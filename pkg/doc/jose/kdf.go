/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	josecipher "github.com/go-jose/go-jose/v3/cipher"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	kekSize     = 32
	cbcHMACKey  = 64
	cbcHMACTag  = 32
	aeadTagSize = 16
)

// lengthPrefixed encodes data as a 32 bit big endian length followed by data.
func lengthPrefixed(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)

	return out
}

// deriveKEK runs the Concat KDF over the shared secret z. For ECDH-1PU the content
// encryption tag is bound to the derived key through SuppPubInfo.
func deriveKEK(alg KeyAlg, z, apu, apv, tag []byte) ([]byte, error) {
	supPubInfo := make([]byte, 4)
	binary.BigEndian.PutUint32(supPubInfo, kekSize*8)

	if alg == ECDH1PUA256KW {
		supPubInfo = append(supPubInfo, lengthPrefixed(tag)...)
	}

	reader := josecipher.NewConcatKDF(crypto.SHA256, z,
		lengthPrefixed([]byte(alg)), lengthPrefixed(apu), lengthPrefixed(apv), supPubInfo, []byte{})

	kek := make([]byte, kekSize)

	if _, err := io.ReadFull(reader, kek); err != nil {
		return nil, fmt.Errorf("derive KEK: %w", err)
	}

	return kek, nil
}

// sharedSecret computes Ze, or Ze||Zs when a static pair is given for ECDH-1PU.
func sharedSecret(ephemeral *ecdh.PrivateKey, ephemeralPeer *ecdh.PublicKey,
	static *ecdh.PrivateKey, staticPeer *ecdh.PublicKey) ([]byte, error) {
	ze, err := ephemeral.ECDH(ephemeralPeer)
	if err != nil {
		return nil, fmt.Errorf("ephemeral key agreement: %w", err)
	}

	if static == nil {
		return ze, nil
	}

	zs, err := static.ECDH(staticPeer)
	if err != nil {
		return nil, fmt.Errorf("static key agreement: %w", err)
	}

	return append(ze, zs...), nil
}

func wrapKey(kek, cek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	return josecipher.KeyWrap(block, cek)
}

func unwrapKey(kek, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	return josecipher.KeyUnwrap(block, wrapped)
}

// contentCipher returns the AEAD for enc along with the CEK and tag sizes it expects.
func contentCipher(enc EncAlg, cek []byte) (cipher.AEAD, int, error) {
	switch enc {
	case A256CBCHS512:
		aead, err := josecipher.NewCBCHMAC(cek, aes.NewCipher)

		return aead, cbcHMACTag, err
	case A256GCM:
		block, err := aes.NewCipher(cek)
		if err != nil {
			return nil, 0, err
		}

		aead, err := cipher.NewGCM(block)

		return aead, aeadTagSize, err
	case XC20P:
		aead, err := chacha20poly1305.NewX(cek)

		return aead, aeadTagSize, err
	default:
		return nil, 0, fmt.Errorf("encryption algorithm '%s' not supported", enc)
	}
}

func cekSize(enc EncAlg) (int, error) {
	switch enc {
	case A256CBCHS512:
		return cbcHMACKey, nil
	case A256GCM:
		return 32, nil
	case XC20P:
		return chacha20poly1305.KeySize, nil
	default:
		return 0, fmt.Errorf("encryption algorithm '%s' not supported", enc)
	}
}

// RecipientsDigest returns BASE64URL(SHA256(kids sorted and joined with ".")), the apv of DIDComm envelopes.
func RecipientsDigest(kids []string) string {
	sorted := append([]string(nil), kids...)
	sort.Strings(sorted)

	digest := sha256.Sum256([]byte(strings.Join(sorted, ".")))

	return base64.RawURLEncoding.EncodeToString(digest[:])
}
