/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/internal/didcommtest"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	mocksecret "github.com/hyperledger/aries-didcomm-go/pkg/internal/gomocks/secret"
	mockvdr "github.com/hyperledger/aries-didcomm-go/pkg/internal/gomocks/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

type mockProvider struct {
	resolver vdrapi.Resolver
	secrets  secret.Resolver
}

func (p *mockProvider) VDRegistry() vdrapi.Resolver     { return p.resolver }
func (p *mockProvider) SecretResolver() secret.Resolver { return p.secrets }

func newClient(t *testing.T, f *didcommtest.Fixture, p *didcommtest.Party, opts ...Option) *Client {
	t.Helper()

	c, err := New(&mockProvider{resolver: f.Resolver, secrets: p.SecretStore()}, opts...)
	require.NoError(t, err)

	return c
}

func testMessage() *message.Message {
	return &message.Message{
		ID:            "1234567890",
		Type:          "http://example.com/protocols/lets_do_lunch/1.0/proposal",
		Typ:           message.TypPlain,
		From:          didcommtest.AliceDID,
		To:            []string{didcommtest.BobDID},
		Body:          json.RawMessage(`{"messagespecificattribute":"and its value"}`),
		CustomHeaders: map[string]interface{}{"routing_all": "all"},
	}
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := New(&mockProvider{secrets: mocksecret.NewMockResolver(ctrl)})
	require.EqualError(t, err, "didcomm client: DID resolver is required")

	_, err = New(&mockProvider{resolver: mockvdr.NewMockResolver(ctrl)})
	require.EqualError(t, err, "didcomm client: secret resolver is required")
}

func TestClient_PackPlaintext(t *testing.T) {
	f := didcommtest.New(t)
	alice := newClient(t, f, f.Alice)

	res, err := alice.PackPlaintext(context.Background(), &PackPlaintextParams{Message: testMessage()})
	require.NoError(t, err)
	require.Nil(t, res.Routing)

	unpacked, err := newClient(t, f, f.Bob).Unpack(context.Background(), res.PackedMessage, nil)
	require.NoError(t, err)
	require.Equal(t, testMessage(), unpacked.Message)
	require.False(t, unpacked.Metadata.Encrypted)

	_, err = alice.PackPlaintext(context.Background(), &PackPlaintextParams{})
	require.ErrorIs(t, err, didcommerr.UnsupportedParams)
}

func TestClient_PackSigned(t *testing.T) {
	f := didcommtest.New(t)

	res, err := newClient(t, f, f.Alice).PackSigned(context.Background(), &PackSignedParams{
		Message:  testMessage(),
		SignFrom: f.Alice.Kid("key-2"),
	})
	require.NoError(t, err)
	require.Equal(t, f.Alice.Kid("key-2"), res.SignFromKid)

	unpacked, err := newClient(t, f, f.Bob).Unpack(context.Background(), res.PackedMessage, nil)
	require.NoError(t, err)
	require.Equal(t, packer.SignES256, unpacked.Metadata.SignAlg)
	require.True(t, unpacked.Metadata.NonRepudiation)
}

func TestClient_PackEncrypted(t *testing.T) {
	f := didcommtest.New(t)
	alice := newClient(t, f, f.Alice)
	bob := newClient(t, f, f.Bob)

	t.Run("authcrypt when from and encAlgAuth are set", func(t *testing.T) {
		res, err := alice.PackEncrypted(context.Background(), &PackEncryptedParams{
			Message:    testMessage(),
			From:       didcommtest.AliceDID,
			EncAlgAuth: packer.A256CBCHS512ECDH1PUA256KW,
			EncAlgAnon: packer.XC20PECDHESA256KW,
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.FromKid)

		unpacked, err := bob.Unpack(context.Background(), res.PackedMessage, nil)
		require.NoError(t, err)
		require.True(t, unpacked.Metadata.Authenticated)
		require.False(t, unpacked.Metadata.AnonymousSender)
		require.Equal(t, res.FromKid, unpacked.Metadata.EncryptedFrom)
	})

	t.Run("anoncrypt without from", func(t *testing.T) {
		res, err := alice.PackEncrypted(context.Background(), &PackEncryptedParams{
			Message:    testMessage(),
			EncAlgAuth: packer.A256CBCHS512ECDH1PUA256KW,
			EncAlgAnon: packer.XC20PECDHESA256KW,
		})
		require.NoError(t, err)
		require.Empty(t, res.FromKid)

		unpacked, err := bob.Unpack(context.Background(), res.PackedMessage, nil)
		require.NoError(t, err)
		require.True(t, unpacked.Metadata.AnonymousSender)
		require.Equal(t, testMessage(), unpacked.Message)
	})

	t.Run("explicit recipients", func(t *testing.T) {
		res, err := alice.PackEncrypted(context.Background(), &PackEncryptedParams{
			Message:    testMessage(),
			To:         []string{f.Bob.Kid("key-p256-1")},
			EncAlgAnon: packer.A256GCMECDHESA256KW,
		})
		require.NoError(t, err)
		require.Equal(t, []string{f.Bob.Kid("key-p256-1")}, res.ToKids)
	})

	t.Run("no algorithm", func(t *testing.T) {
		_, err := alice.PackEncrypted(context.Background(), &PackEncryptedParams{
			Message: testMessage(),
			From:    didcommtest.AliceDID,
		})
		require.ErrorIs(t, err, didcommerr.UnsupportedParams)
	})

	t.Run("no recipients", func(t *testing.T) {
		msg := testMessage()
		msg.To = nil

		_, err := alice.PackEncrypted(context.Background(), &PackEncryptedParams{
			Message:    msg,
			EncAlgAnon: packer.A256GCMECDHESA256KW,
		})
		require.ErrorIs(t, err, didcommerr.MissingTo)
	})
}

func TestClient_PackEncrypted_Forward(t *testing.T) {
	f := didcommtest.New(t)
	alice := newClient(t, f, f.Alice)

	res, err := alice.PackEncrypted(context.Background(), &PackEncryptedParams{
		Message:       testMessage(),
		EncAlgAnon:    packer.A256CBCHS512ECDHESA256KW,
		ForwardParams: ForwardParams{Forward: true},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Routing)

	forwards := res.Routing.ForwardMessages()
	require.Len(t, forwards, 3)

	unpacked, err := newClient(t, f, f.Mediator1).Unpack(context.Background(), forwards[0].Message.PackedMessage, nil)
	require.NoError(t, err)
	require.Equal(t, message.ForwardType, unpacked.Message.Type)

	fwd, err := message.ForwardFromMessage(unpacked.Message)
	require.NoError(t, err)
	require.Equal(t, didcommtest.BobDID, fwd.Next)

	payload, err := fwd.ForwardedMessage()
	require.NoError(t, err)

	final, err := newClient(t, f, f.Bob).Unpack(context.Background(), string(payload),
		&packager.UnpackOptions{ExpectDecryptByAllKeys: true})
	require.NoError(t, err)
	require.Equal(t, testMessage(), final.Message)
}

func TestClient_Unpack(t *testing.T) {
	f := didcommtest.New(t)

	res, err := newClient(t, f, f.Alice).PackEncrypted(context.Background(), &PackEncryptedParams{
		Message:    testMessage(),
		EncAlgAnon: packer.A256CBCHS512ECDHESA256KW,
		SignFrom:   didcommtest.AliceDID,
	})
	require.NoError(t, err)

	_, err = newClient(t, f, f.Bob, WithMaxUnpackDepth(2)).Unpack(context.Background(), res.PackedMessage, nil)
	require.ErrorIs(t, err, didcommerr.MalformedMessage)

	t.Run("resolver failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		resolver := mockvdr.NewMockResolver(ctrl)
		resolver.EXPECT().Resolve(gomock.Any(), didcommtest.AliceDID).Return(nil, errors.New("offline"))

		c, err := New(&mockProvider{resolver: resolver, secrets: f.Bob.SecretStore()})
		require.NoError(t, err)

		plaintext, err := newClient(t, f, f.Alice).PackSigned(context.Background(), &PackSignedParams{
			Message:  testMessage(),
			SignFrom: f.Alice.Kid("key-1"),
		})
		require.NoError(t, err)

		_, err = c.Unpack(context.Background(), plaintext.PackedMessage, nil)
		require.ErrorIs(t, err, didcommerr.SomethingWentWrong)
	})
}
