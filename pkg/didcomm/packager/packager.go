/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package packager unpacks DIDComm envelopes. A packed message is peeled one layer at a time (encrypted,
// signed, then plain) and what every layer proved about the message is collected in Metadata.
package packager

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/fromprior"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keyselector"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
)

var logger = log.New("aries-framework/didcomm/packager")

// DefaultMaxDepth bounds the number of envelope layers Unpack peels.
const DefaultMaxDepth = 16

// Provider contains dependencies for the Packager.
type Provider interface {
	packer.Provider
}

// Metadata describes the envelope layers a message was unpacked from. SignedMessage holds the verified JWS
// so the signature can be shown to a third party.
type Metadata struct {
	Encrypted          bool                `json:"encrypted"`
	Authenticated      bool                `json:"authenticated"`
	NonRepudiation     bool                `json:"nonRepudiation"`
	AnonymousSender    bool                `json:"anonymousSender"`
	ReWrappedInForward bool                `json:"reWrappedInForward"`
	EncryptedTo        []string            `json:"encryptedTo,omitempty"`
	EncryptedFrom      string              `json:"encryptedFrom,omitempty"`
	SignFrom           string              `json:"signFrom,omitempty"`
	FromPriorIssuerKid string              `json:"fromPriorIssuerKid,omitempty"`
	EncAlgAuth         packer.AuthCryptAlg `json:"encAlgAuth,omitempty"`
	EncAlgAnon         packer.AnonCryptAlg `json:"encAlgAnon,omitempty"`
	SignAlg            packer.SignAlg      `json:"signAlg,omitempty"`
	SignedMessage      json.RawMessage     `json:"signedMessage,omitempty"`
	FromPriorJWT       string              `json:"fromPriorJwt,omitempty"`
}

// UnpackOptions controls how strict Unpack is.
type UnpackOptions struct {
	// ExpectDecryptByAllKeys requires every local recipient key to decrypt an encrypted layer to the same
	// plaintext. Otherwise the first key that decrypts is used.
	ExpectDecryptByAllKeys bool
	// UnwrapReWrappingForward unpacks the payload of a forward message addressed to a DID or kid we hold keys
	// for, instead of returning the forward message itself.
	UnwrapReWrappingForward bool
}

// DefaultUnpackOptions returns the options used when Unpack is called with nil options.
func DefaultUnpackOptions() *UnpackOptions {
	return &UnpackOptions{UnwrapReWrappingForward: true}
}

// Option configures a Packager.
type Option func(*Packager)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(p *Packager) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// Packager unpacks DIDComm envelopes.
type Packager struct {
	recipient *keyselector.Recipient
	maxDepth  int
}

// New returns a Packager resolving keys through ctx.
func New(ctx Provider, opts ...Option) *Packager {
	p := &Packager{
		recipient: keyselector.NewRecipient(ctx.VDRegistry(), ctx.SecretResolver()),
		maxDepth:  DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type envelopeKind int

const (
	plainEnvelope envelopeKind = iota
	signedEnvelope
	encryptedEnvelope
)

func (k envelopeKind) String() string {
	switch k {
	case signedEnvelope:
		return "signed"
	case encryptedEnvelope:
		return "encrypted"
	default:
		return "plain"
	}
}

// envelopeStub holds the members telling JWE, JWS and plaintext apart.
type envelopeStub struct {
	Protected  json.RawMessage `json:"protected"`
	Recipients json.RawMessage `json:"recipients"`
	Ciphertext json.RawMessage `json:"ciphertext"`
	Payload    json.RawMessage `json:"payload"`
	Signatures json.RawMessage `json:"signatures"`
	Signature  json.RawMessage `json:"signature"`
}

func envelopeKindOf(packed []byte) envelopeKind {
	stub := &envelopeStub{}

	if err := json.Unmarshal(packed, stub); err != nil {
		return plainEnvelope
	}

	switch {
	case stub.Protected != nil && stub.Recipients != nil && stub.Ciphertext != nil:
		return encryptedEnvelope
	case stub.Payload != nil && stub.Signatures != nil:
		return signedEnvelope
	case stub.Payload != nil && stub.Signature != nil && stub.Protected != nil:
		return signedEnvelope
	default:
		return plainEnvelope
	}
}

// Unpack peels every envelope layer of packed and returns the plaintext message and what its layers proved.
func (p *Packager) Unpack(ctx context.Context, packed string, opts *UnpackOptions) (*message.Message, *Metadata,
	error) {
	if opts == nil {
		opts = DefaultUnpackOptions()
	}

	md := &Metadata{}
	current := []byte(packed)

	for depth := 0; ; depth++ {
		if depth >= p.maxDepth {
			return nil, nil, didcommerr.Newf(didcommerr.MalformedMessage, "more than %d envelope layers", p.maxDepth)
		}

		kind := envelopeKindOf(current)
		logger.Debugf("unpack: layer %d is %s", depth, kind)

		var err error

		switch kind {
		case encryptedEnvelope:
			current, err = p.decrypt(ctx, current, opts, md)
		case signedEnvelope:
			current, err = p.verify(ctx, current, md)
		default:
			var (
				msg       *message.Message
				forwarded []byte
			)

			msg, err = p.plain(ctx, current, md)
			if err != nil {
				return nil, nil, err
			}

			if opts.UnwrapReWrappingForward {
				forwarded, err = p.reWrapped(ctx, msg)
				if err != nil {
					return nil, nil, err
				}
			}

			if forwarded == nil {
				return msg, md, nil
			}

			md.ReWrappedInForward = true
			current = forwarded
		}

		if err != nil {
			return nil, nil, err
		}
	}
}

func (p *Packager) decrypt(ctx context.Context, packed []byte, opts *UnpackOptions, md *Metadata) ([]byte, error) {
	jwe, err := jose.Deserialize(string(packed))
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedMessage, err, "JWE")
	}

	headers := jwe.ProtectedHeaders
	skid, hasSKID := headers.SenderKeyID()
	apu, hasAPU := headers.APU()

	if hasSKID && (!hasAPU || string(apu) != skid) {
		return nil, didcommerr.New(didcommerr.MalformedMessage, "APU is different of senderKid")
	}

	if !hasSKID && hasAPU {
		skid, hasSKID = string(apu), true
	}

	alg, _ := headers.Algorithm()
	enc, _ := headers.Encryption()
	to := jwe.KeyIDs()

	if hasSKID {
		authAlg, e := packer.AuthCryptAlgFor(alg, enc)
		if e != nil {
			return nil, e
		}

		sender, recipients, e := p.recipient.FindAuthCryptKeys(ctx, skid, to)
		if e != nil {
			return nil, e
		}

		plaintext, e := decryptWith(jwe, recipients, sender, opts.ExpectDecryptByAllKeys)
		if e != nil {
			return nil, e
		}

		md.EncryptedTo = to
		md.EncryptedFrom = skid
		md.Encrypted = true
		md.Authenticated = true
		md.EncAlgAuth = authAlg

		return plaintext, nil
	}

	anonAlg, err := packer.AnonCryptAlgFor(alg, enc)
	if err != nil {
		return nil, err
	}

	recipients, err := p.recipient.FindAnonCryptKeys(ctx, to)
	if err != nil {
		return nil, err
	}

	plaintext, err := decryptWith(jwe, recipients, nil, opts.ExpectDecryptByAllKeys)
	if err != nil {
		return nil, err
	}

	md.EncryptedTo = to
	md.Encrypted = true
	md.AnonymousSender = true
	md.EncAlgAnon = anonAlg

	return plaintext, nil
}

func decryptWith(jwe *jose.JSONWebEncryption, recipients []*keys.Key, sender *keys.Key,
	expectAll bool) ([]byte, error) {
	var senderJWK *jwk.JWK
	if sender != nil {
		senderJWK = sender.JWK
	}

	var plaintext []byte

	for _, r := range recipients {
		pt, err := jose.Decrypt(jwe, r.JWK, senderJWK)
		if err != nil {
			if expectAll {
				return nil, didcommerr.Wrap(didcommerr.MalformedMessage, err, "decrypt for "+r.ID)
			}

			logger.Debugf("unpack: recipient key %s cannot decrypt: %v", r.ID, err)

			continue
		}

		if !expectAll {
			return pt, nil
		}

		if plaintext != nil && !bytes.Equal(plaintext, pt) {
			return nil, didcommerr.New(didcommerr.MalformedMessage, "recipients decrypted different plaintexts")
		}

		plaintext = pt
	}

	if plaintext == nil {
		return nil, didcommerr.Newf(didcommerr.MalformedMessage, "no local key decrypts the message for %v",
			jwe.KeyIDs())
	}

	return plaintext, nil
}

func (p *Packager) verify(ctx context.Context, packed []byte, md *Metadata) ([]byte, error) {
	jws, err := jose.ParseJWS(packed)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedMessage, err, "JWS")
	}

	for _, sig := range jws.Signatures {
		kid, ok := sig.KeyID()
		if !ok {
			continue
		}

		key, e := p.recipient.FindVerificationKey(ctx, kid)
		if e != nil {
			logger.Debugf("unpack: no verification key for %s: %v", kid, e)

			continue
		}

		if e = sig.Verify(jws.Payload, key.JWK); e != nil {
			logger.Debugf("unpack: signature of %s does not verify: %v", kid, e)

			continue
		}

		if alg, ok := sig.Algorithm(); ok {
			if signAlg, e := packer.SignAlgFor(alg); e == nil {
				md.SignAlg = signAlg
			}
		}

		if !json.Valid(jws.Payload) {
			return nil, didcommerr.New(didcommerr.MalformedMessage, "JWS payload is not JSON")
		}

		md.SignFrom = kid
		md.Authenticated = true
		md.NonRepudiation = true
		md.SignedMessage = append(json.RawMessage(nil), packed...)

		return jws.Payload, nil
	}

	return nil, didcommerr.New(didcommerr.SomethingWentWrong, "no signature could be verified")
}

func (p *Packager) plain(ctx context.Context, packed []byte, md *Metadata) (*message.Message, error) {
	msg, err := message.Parse(packed)
	if err != nil {
		return nil, err
	}

	token := msg.FromPriorJWT

	msg, issuerKid, err := fromprior.Unpack(ctx, msg, p.recipient)
	if err != nil {
		return nil, err
	}

	md.FromPriorIssuerKid = issuerKid
	md.FromPriorJWT = token

	return msg, nil
}

// reWrapped returns the payload of msg when it is a forward message for a next hop we hold keys for.
func (p *Packager) reWrapped(ctx context.Context, msg *message.Message) ([]byte, error) {
	if msg.Type != message.ForwardType {
		return nil, nil
	}

	fwd, err := message.ForwardFromMessage(msg)
	if err != nil {
		return nil, err
	}

	ours, err := p.recipient.HasKeysForForwardNext(ctx, fwd.Next)
	if err != nil || !ours {
		if err != nil {
			logger.Debugf("unpack: forward next %s: %v", fwd.Next, err)
		}

		return nil, nil
	}

	logger.Debugf("unpack: forward %s is addressed to local keys of %s, unwrapping", msg.ID, fwd.Next)

	return fwd.ForwardedMessage()
}
