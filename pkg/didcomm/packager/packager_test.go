/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package packager_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/internal/didcommtest"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	. "github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/anoncrypt"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/authcrypt"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/plain"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/signed"
	"github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret/localsecret"
)

type provider struct {
	resolver vdr.Resolver
	secrets  secret.Resolver
}

func (p *provider) VDRegistry() vdr.Resolver        { return p.resolver }
func (p *provider) SecretResolver() secret.Resolver { return p.secrets }

func newProvider(f *didcommtest.Fixture, parties ...*didcommtest.Party) *provider {
	var secrets []*secret.Secret
	for _, p := range parties {
		secrets = append(secrets, p.Secrets...)
	}

	return &provider{resolver: f.Resolver, secrets: localsecret.New(secrets...)}
}

func testMessage() *message.Message {
	created := time.Unix(1516269022, 0).UTC()
	expires := time.Unix(1516385931, 0).UTC()

	return &message.Message{
		ID:            "1234567890",
		Type:          "http://example.com/protocols/lets_do_lunch/1.0/proposal",
		Typ:           message.TypPlain,
		From:          didcommtest.AliceDID,
		To:            []string{didcommtest.BobDID},
		CreatedTime:   &created,
		ExpiresTime:   &expires,
		Body:          json.RawMessage(`{"messagespecificattribute":"and its value"}`),
		CustomHeaders: map[string]interface{}{"routing_all": "all"},
	}
}

func TestUnpack_Plaintext(t *testing.T) {
	f := didcommtest.New(t)

	res, err := plain.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(), nil)
	require.NoError(t, err)

	msg, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), res.PackedMessage, nil)
	require.NoError(t, err)
	require.Equal(t, testMessage(), msg)
	require.Equal(t, &Metadata{}, md)
}

func TestUnpack_AuthcryptToCharlie(t *testing.T) {
	f := didcommtest.New(t)

	res, err := authcrypt.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(),
		didcommtest.AliceDID, []string{didcommtest.CharlieDID},
		&packer.Options{EncAlgAuth: packer.A256CBCHS512ECDH1PUA256KW})
	require.NoError(t, err)
	require.Equal(t, f.Alice.Kid("key-x25519-1"), res.FromKid)

	msg, md, err := New(newProvider(f, f.Charlie)).Unpack(context.Background(), res.PackedMessage, nil)
	require.NoError(t, err)
	require.Equal(t, testMessage(), msg)
	require.True(t, md.Encrypted)
	require.True(t, md.Authenticated)
	require.False(t, md.AnonymousSender)
	require.False(t, md.NonRepudiation)
	require.Equal(t, f.Alice.Kid("key-x25519-1"), md.EncryptedFrom)
	require.ElementsMatch(t, res.ToKids, md.EncryptedTo)
	require.Equal(t, packer.A256CBCHS512ECDH1PUA256KW, md.EncAlgAuth)
}

func TestUnpack_AnoncryptToBobKeys(t *testing.T) {
	f := didcommtest.New(t)

	to := []string{f.Bob.Kid("key-x25519-1"), f.Bob.Kid("key-x25519-2"), f.Bob.Kid("key-x25519-3")}

	res, err := anoncrypt.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(), to,
		&packer.Options{EncAlgAnon: packer.XC20PECDHESA256KW})
	require.NoError(t, err)

	for _, kid := range to {
		kid := kid
		t.Run(kid, func(t *testing.T) {
			t.Parallel()

			var only *secret.Secret

			for _, s := range f.Bob.Secrets {
				if s.ID == kid {
					only = s
				}
			}

			require.NotNil(t, only)

			p := New(&provider{resolver: f.Resolver, secrets: localsecret.New(only)})

			msg, md, err := p.Unpack(context.Background(), res.PackedMessage, nil)
			require.NoError(t, err)
			require.Equal(t, testMessage(), msg)
			require.True(t, md.Encrypted)
			require.True(t, md.AnonymousSender)
			require.False(t, md.Authenticated)
			require.Empty(t, md.EncryptedFrom)
			require.Equal(t, packer.XC20PECDHESA256KW, md.EncAlgAnon)
			require.ElementsMatch(t, to, md.EncryptedTo)
		})
	}

	t.Run("every local key must decrypt", func(t *testing.T) {
		_, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), res.PackedMessage,
			&UnpackOptions{ExpectDecryptByAllKeys: true})
		require.NoError(t, err)
		require.True(t, md.AnonymousSender)
	})

	t.Run("no local key", func(t *testing.T) {
		_, _, err := New(newProvider(f, f.Charlie)).Unpack(context.Background(), res.PackedMessage, nil)
		require.ErrorIs(t, err, didcommerr.SecretsNotFound)
	})
}

func TestUnpack_SignedES256K(t *testing.T) {
	f := didcommtest.New(t)

	res, err := signed.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(),
		f.Alice.Kid("key-3"), nil)
	require.NoError(t, err)

	msg, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), res.PackedMessage, nil)
	require.NoError(t, err)
	require.Equal(t, testMessage(), msg)
	require.Equal(t, packer.SignES256K, md.SignAlg)
	require.Equal(t, "did:example:alice#key-3", md.SignFrom)
	require.True(t, md.Authenticated)
	require.True(t, md.NonRepudiation)
	require.False(t, md.Encrypted)
	require.JSONEq(t, res.PackedMessage, string(md.SignedMessage))

	t.Run("tampered payload", func(t *testing.T) {
		raw := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(res.PackedMessage), &raw))

		raw["payload"] = base64.RawURLEncoding.EncodeToString([]byte(`{"id":"1","type":"t"}`))

		tampered, err := json.Marshal(raw)
		require.NoError(t, err)

		_, _, err = New(newProvider(f, f.Bob)).Unpack(context.Background(), string(tampered), nil)
		require.ErrorIs(t, err, didcommerr.SomethingWentWrong)
	})
}

func TestUnpack_APUDifferentFromSKID(t *testing.T) {
	f := didcommtest.New(t)

	res, err := authcrypt.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(),
		didcommtest.AliceDID, []string{didcommtest.BobDID},
		&packer.Options{EncAlgAuth: packer.A256CBCHS512ECDH1PUA256KW})
	require.NoError(t, err)

	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(res.PackedMessage), &raw))

	protectedJSON, err := base64.RawURLEncoding.DecodeString(raw["protected"].(string))
	require.NoError(t, err)

	protected := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(protectedJSON, &protected))

	protected["apu"] = base64.RawURLEncoding.EncodeToString([]byte(f.Alice.Kid("key-p256-1")))

	protectedJSON, err = json.Marshal(protected)
	require.NoError(t, err)

	raw["protected"] = base64.RawURLEncoding.EncodeToString(protectedJSON)

	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	_, _, err = New(newProvider(f, f.Bob)).Unpack(context.Background(), string(tampered), nil)
	require.ErrorIs(t, err, didcommerr.MalformedMessage)
	require.Contains(t, err.Error(), "APU is different of senderKid")
}

func TestUnpack_RoundTrip(t *testing.T) {
	f := didcommtest.New(t)
	sender := newProvider(f, f.Alice, f.Charlie)

	fromPrior := testMessage()
	fromPrior.FromPrior = &message.FromPrior{
		Iss: didcommtest.CharlieDID,
		Sub: didcommtest.AliceDID,
		Aud: "123",
		Jti: "dfg",
	}

	tests := []struct {
		name  string
		pack  func(ctx context.Context, msg *message.Message) (*packer.Result, error)
		check func(t *testing.T, md *Metadata)
	}{
		{
			name: "signed with Ed25519",
			pack: func(ctx context.Context, msg *message.Message) (*packer.Result, error) {
				return signed.New(sender).Pack(ctx, msg, didcommtest.AliceDID, nil)
			},
			check: func(t *testing.T, md *Metadata) {
				require.Equal(t, packer.SignEd25519, md.SignAlg)
				require.Equal(t, f.Alice.Kid("key-1"), md.SignFrom)
			},
		},
		{
			name: "signed with P-256",
			pack: func(ctx context.Context, msg *message.Message) (*packer.Result, error) {
				return signed.New(sender).Pack(ctx, msg, f.Alice.Kid("key-2"), nil)
			},
			check: func(t *testing.T, md *Metadata) {
				require.Equal(t, packer.SignES256, md.SignAlg)
			},
		},
		{
			name: "anoncrypt A256CBC-HS512 to P-384 keys",
			pack: func(ctx context.Context, msg *message.Message) (*packer.Result, error) {
				return anoncrypt.New(sender).Pack(ctx, msg,
					[]string{f.Bob.Kid("key-p384-1"), f.Bob.Kid("key-p384-2")},
					&packer.Options{EncAlgAnon: packer.A256CBCHS512ECDHESA256KW})
			},
			check: func(t *testing.T, md *Metadata) {
				require.Equal(t, packer.A256CBCHS512ECDHESA256KW, md.EncAlgAnon)
				require.True(t, md.AnonymousSender)
			},
		},
		{
			name: "anoncrypt A256GCM signed",
			pack: func(ctx context.Context, msg *message.Message) (*packer.Result, error) {
				return anoncrypt.New(sender).Pack(ctx, msg, []string{didcommtest.BobDID},
					&packer.Options{EncAlgAnon: packer.A256GCMECDHESA256KW, SignFrom: didcommtest.AliceDID})
			},
			check: func(t *testing.T, md *Metadata) {
				require.Equal(t, packer.A256GCMECDHESA256KW, md.EncAlgAnon)
				require.True(t, md.NonRepudiation)
				require.True(t, md.Authenticated)
				require.True(t, md.AnonymousSender)
			},
		},
		{
			name: "authcrypt P-521 with protected sender",
			pack: func(ctx context.Context, msg *message.Message) (*packer.Result, error) {
				return authcrypt.New(sender).Pack(ctx, msg, f.Alice.Kid("key-p521-1"), []string{didcommtest.BobDID},
					&packer.Options{
						EncAlgAuth:      packer.A256CBCHS512ECDH1PUA256KW,
						EncAlgAnon:      packer.A256GCMECDHESA256KW,
						ProtectSenderID: true,
					})
			},
			check: func(t *testing.T, md *Metadata) {
				require.True(t, md.AnonymousSender)
				require.True(t, md.Authenticated)
				require.Equal(t, f.Alice.Kid("key-p521-1"), md.EncryptedFrom)
				require.Equal(t, packer.A256CBCHS512ECDH1PUA256KW, md.EncAlgAuth)
				require.Equal(t, packer.A256GCMECDHESA256KW, md.EncAlgAnon)
			},
		},
		{
			name: "authcrypt signed with secp256k1",
			pack: func(ctx context.Context, msg *message.Message) (*packer.Result, error) {
				return authcrypt.New(sender).Pack(ctx, msg, didcommtest.AliceDID, []string{didcommtest.BobDID},
					&packer.Options{EncAlgAuth: packer.A256CBCHS512ECDH1PUA256KW, SignFrom: f.Alice.Kid("key-3")})
			},
			check: func(t *testing.T, md *Metadata) {
				require.Equal(t, packer.SignES256K, md.SignAlg)
				require.True(t, md.NonRepudiation)
				require.Equal(t, f.Alice.Kid("key-x25519-1"), md.EncryptedFrom)
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			for _, msg := range []*message.Message{testMessage(), fromPrior} {
				res, err := tc.pack(context.Background(), msg)
				require.NoError(t, err)

				unpacked, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), res.PackedMessage,
					&UnpackOptions{ExpectDecryptByAllKeys: true})
				require.NoError(t, err)
				require.Equal(t, msg, unpacked)
				tc.check(t, md)

				if msg.FromPrior != nil {
					require.Equal(t, f.Charlie.Kid("key-1"), res.FromPriorIssuerKid)
					require.Equal(t, res.FromPriorIssuerKid, md.FromPriorIssuerKid)
					require.NotEmpty(t, md.FromPriorJWT)
				}
			}
		})
	}
}

func TestUnpack_MaxDepth(t *testing.T) {
	f := didcommtest.New(t)

	res, err := anoncrypt.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(),
		[]string{didcommtest.BobDID}, &packer.Options{EncAlgAnon: packer.A256CBCHS512ECDHESA256KW})
	require.NoError(t, err)

	_, _, err = New(newProvider(f, f.Bob), WithMaxDepth(1)).Unpack(context.Background(), res.PackedMessage, nil)
	require.ErrorIs(t, err, didcommerr.MalformedMessage)

	_, _, err = New(newProvider(f, f.Bob), WithMaxDepth(2)).Unpack(context.Background(), res.PackedMessage, nil)
	require.NoError(t, err)
}

func TestUnpack_ReWrappedInForward(t *testing.T) {
	f := didcommtest.New(t)
	anon := anoncrypt.New(newProvider(f, f.Alice))
	opts := &packer.Options{EncAlgAnon: packer.A256CBCHS512ECDHESA256KW}

	inner, err := anon.Pack(context.Background(), testMessage(), []string{didcommtest.BobDID}, opts)
	require.NoError(t, err)

	fwd, err := message.NewForward(didcommtest.BobDID, []string{didcommtest.BobDID}, inner.PackedMessage, nil)
	require.NoError(t, err)

	fwdMsg, err := fwd.Message()
	require.NoError(t, err)

	outer, err := anon.Pack(context.Background(), fwdMsg, []string{didcommtest.BobDID}, opts)
	require.NoError(t, err)

	t.Run("unwrapped by default", func(t *testing.T) {
		msg, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), outer.PackedMessage, nil)
		require.NoError(t, err)
		require.Equal(t, testMessage(), msg)
		require.True(t, md.ReWrappedInForward)
		require.True(t, md.AnonymousSender)
	})

	t.Run("authcrypt inside anoncrypt forward", func(t *testing.T) {
		authInner, err := authcrypt.New(newProvider(f, f.Alice)).Pack(context.Background(), testMessage(),
			didcommtest.AliceDID, []string{didcommtest.BobDID},
			&packer.Options{EncAlgAuth: packer.A256CBCHS512ECDH1PUA256KW})
		require.NoError(t, err)

		authFwd, err := message.NewForward(didcommtest.BobDID, []string{didcommtest.BobDID}, authInner.PackedMessage,
			nil)
		require.NoError(t, err)

		authFwdMsg, err := authFwd.Message()
		require.NoError(t, err)

		wrapped, err := anon.Pack(context.Background(), authFwdMsg, []string{didcommtest.BobDID}, opts)
		require.NoError(t, err)

		msg, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), wrapped.PackedMessage, nil)
		require.NoError(t, err)
		require.Equal(t, testMessage(), msg)
		require.True(t, md.ReWrappedInForward)
		require.True(t, md.AnonymousSender)
		require.True(t, md.Authenticated)
		require.True(t, md.Encrypted)
		require.Equal(t, authInner.FromKid, md.EncryptedFrom)
		require.Equal(t, packer.A256CBCHS512ECDHESA256KW, md.EncAlgAnon)
	})

	t.Run("kept when disabled", func(t *testing.T) {
		msg, md, err := New(newProvider(f, f.Bob)).Unpack(context.Background(), outer.PackedMessage,
			&UnpackOptions{})
		require.NoError(t, err)
		require.Equal(t, message.ForwardType, msg.Type)
		require.False(t, md.ReWrappedInForward)

		parsed, err := message.ForwardFromMessage(msg)
		require.NoError(t, err)
		require.Equal(t, didcommtest.BobDID, parsed.Next)
	})

	t.Run("kept when next is not ours", func(t *testing.T) {
		toMediator, err := anon.Pack(context.Background(), fwdMsg, []string{didcommtest.Mediator1DID}, opts)
		require.NoError(t, err)

		msg, md, err := New(newProvider(f, f.Mediator1)).Unpack(context.Background(), toMediator.PackedMessage, nil)
		require.NoError(t, err)
		require.Equal(t, message.ForwardType, msg.Type)
		require.False(t, md.ReWrappedInForward)
	})
}

func TestUnpack_Malformed(t *testing.T) {
	f := didcommtest.New(t)
	p := New(newProvider(f, f.Bob))

	tests := []struct {
		name   string
		packed string
	}{
		{name: "not JSON", packed: "not json"},
		{name: "plaintext without id", packed: `{"type":"t","body":{}}`},
		{name: "broken JWE", packed: `{"protected":"!!","recipients":[],"ciphertext":"","iv":"","tag":""}`},
		{name: "broken JWS", packed: `{"payload":"e30","signatures":[{"protected":"!!","signature":"x"}]}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := p.Unpack(context.Background(), tc.packed, nil)
			require.ErrorIs(t, err, didcommerr.MalformedMessage)
		})
	}
}
