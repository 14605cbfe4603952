/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package routing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/internal/didcommtest"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/message"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packer/anoncrypt"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/memvdr"
)

type provider struct {
	resolver vdr.Resolver
	secrets  secret.Resolver
}

func (p *provider) VDRegistry() vdr.Resolver        { return p.resolver }
func (p *provider) SecretResolver() secret.Resolver { return p.secrets }

func partyProvider(f *didcommtest.Fixture, p *didcommtest.Party) *provider {
	return &provider{resolver: f.Resolver, secrets: p.SecretStore()}
}

func testMessage(to string) *message.Message {
	return &message.Message{
		ID:   "1234567890",
		Type: "http://example.com/protocols/lets_do_lunch/1.0/proposal",
		Typ:  message.TypPlain,
		From: didcommtest.AliceDID,
		To:   []string{to},
		Body: json.RawMessage(`{"messagespecificattribute":"and its value"}`),
	}
}

func packFor(t *testing.T, f *didcommtest.Fixture, to string) string {
	t.Helper()

	res, err := anoncrypt.New(partyProvider(f, f.Alice)).Pack(context.Background(), testMessage(to), []string{to},
		&packer.Options{EncAlgAnon: packer.A256CBCHS512ECDHESA256KW})
	require.NoError(t, err)

	return res.PackedMessage
}

// unwrap unpacks a forward message as mediator and returns its next hop and payload.
func unwrap(t *testing.T, f *didcommtest.Fixture, mediator *didcommtest.Party, packed string) (string, string) {
	t.Helper()

	msg, md, err := packager.New(partyProvider(f, mediator)).Unpack(context.Background(), packed, nil)
	require.NoError(t, err)
	require.True(t, md.AnonymousSender)

	fwd, err := message.ForwardFromMessage(msg)
	require.NoError(t, err)

	payload, err := fwd.ForwardedMessage()
	require.NoError(t, err)

	return fwd.Next, string(payload)
}

func TestBuildServiceTree(t *testing.T) {
	f := didcommtest.New(t)

	tree, err := BuildServiceTree(context.Background(), f.Resolver,
		[]string{didcommtest.BobDID, didcommtest.DaveDID, didcommtest.CharlieDID})
	require.NoError(t, err)
	require.Len(t, tree.Roots, 3)

	bob := tree.Nodes[tree.Roots[0]]
	require.Equal(t, didcommtest.BobDID, bob.URI)
	require.Equal(t, noParent, bob.Parent)
	require.Len(t, bob.Children, 3)

	med1 := tree.Nodes[bob.Children[0]]
	require.Equal(t, didcommtest.Mediator1DID, med1.NextDID)
	require.Empty(t, med1.Children)

	med2 := tree.Nodes[bob.Children[1]]
	require.Equal(t, didcommtest.Mediator2DID, med2.NextDID)
	require.Len(t, med2.Children, 1)

	med2HTTP := tree.Nodes[med2.Children[0]]
	require.Empty(t, med2HTTP.NextDID)
	require.Equal(t, []string{f.Mediator4.Kid("key-x25519-1")}, med2HTTP.RoutingKeys)
	require.Equal(t, didcommtest.BobDID, med2HTTP.FinalRecipient)

	bobHTTP := tree.Nodes[bob.Children[2]]
	require.Equal(t, didcommtest.BobEndpoint, bobHTTP.URI)
	require.Equal(t, []string{f.Mediator3.Kid("key-x25519-1")}, bobHTTP.RoutingKeys)

	depth := 0
	for n := tree.Nodes[tree.Roots[1]]; len(n.Children) > 0; n = tree.Nodes[n.Children[0]] {
		depth++

		require.Equal(t, didcommtest.DaveDID, n.FinalRecipient)
	}

	require.Equal(t, 3, depth)

	require.Empty(t, tree.Nodes[tree.Roots[2]].Children)
}

func TestBuildServiceTree_Failures(t *testing.T) {
	t.Run("unknown DID", func(t *testing.T) {
		f := didcommtest.New(t)

		_, err := BuildServiceTree(context.Background(), f.Resolver, []string{"did:example:nobody"})
		require.ErrorIs(t, err, didcommerr.UnableToResolveDID)
	})

	t.Run("not a DID", func(t *testing.T) {
		f := didcommtest.New(t)

		_, err := BuildServiceTree(context.Background(), f.Resolver, []string{"https://bob.example"})
		require.ErrorIs(t, err, didcommerr.InvalidDID)
	})

	t.Run("endpoint object without uri", func(t *testing.T) {
		endpoint, err := did.ParseServiceEndpoint(json.RawMessage(`{"routingKeys":["did:example:m#key-1"]}`))
		require.NoError(t, err)

		p := didcommtest.NewParty(t, "did:example:eve", []didcommtest.KeySpec{
			{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: didcommtest.FormatJWK, Rel: didcommtest.KeyAgreement},
		}, did.Service{ID: "did:example:eve#didcomm-1", Type: did.DIDCommMessagingServiceType, ServiceEndpoint: endpoint})

		resolver, err := memvdr.New(p.Doc)
		require.NoError(t, err)

		_, err = BuildServiceTree(context.Background(), resolver, []string{p.DID})
		require.ErrorIs(t, err, didcommerr.MissingURI)
	})

	t.Run("routing loop", func(t *testing.T) {
		p := didcommtest.NewParty(t, "did:example:loop", []didcommtest.KeySpec{
			{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: didcommtest.FormatJWK, Rel: didcommtest.KeyAgreement},
		}, did.Service{
			ID:              "did:example:loop#didcomm-1",
			Type:            did.DIDCommMessagingServiceType,
			ServiceEndpoint: did.NewURIEndpoint("did:example:loop"),
		})

		resolver, err := memvdr.New(p.Doc)
		require.NoError(t, err)

		tree, err := BuildServiceTree(context.Background(), resolver, []string{p.DID})
		require.NoError(t, err)
		require.Len(t, tree.Nodes, 1)
	})
}

func TestRouter_PackRouting_Bob(t *testing.T) {
	f := didcommtest.New(t)
	packed := packFor(t, f, didcommtest.BobDID)

	result, err := New(partyProvider(f, f.Alice)).PackRouting(context.Background(), []string{didcommtest.BobDID},
		packed, &Options{Headers: map[string]interface{}{"return_route": "all"}})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Roots(), 3)

	mediator2 := result.Roots()[1]
	require.Equal(t, didcommtest.BobDID, mediator2.Next)
	require.Len(t, result.Children(mediator2), 1)

	forwards := result.ForwardMessages()
	require.Len(t, forwards, 3)

	require.Equal(t, []string{didcommtest.Mediator1DID}, forwards[0].RoutedBy)
	require.Equal(t, []string{f.Mediator1.Kid("key-x25519-1")}, forwards[0].Message.ToKids)

	require.Equal(t, []string{f.Mediator4.Kid("key-x25519-1"), didcommtest.Mediator2DID}, forwards[1].RoutedBy)
	require.Equal(t, []string{f.Mediator4.Kid("key-x25519-1")}, forwards[1].Message.ToKids)

	require.Equal(t, []string{f.Mediator3.Kid("key-x25519-1")}, forwards[2].RoutedBy)
	require.Equal(t, []string{f.Mediator3.Kid("key-x25519-1")}, forwards[2].Message.ToKids)

	seen := map[string]struct{}{}

	for _, fwd := range forwards {
		require.Equal(t, didcommtest.BobDID, fwd.FinalRecipient)

		seen[fwd.Message.PackedMessage] = struct{}{}
	}

	require.Len(t, seen, 3)

	t.Run("mediators peel their hops", func(t *testing.T) {
		next, payload := unwrap(t, f, f.Mediator4, forwards[1].Message.PackedMessage)
		require.Equal(t, "https://mediator2.example/didcomm", next)

		next, payload = unwrap(t, f, f.Mediator2, payload)
		require.Equal(t, didcommtest.BobDID, next)

		msg, _, err := packager.New(partyProvider(f, f.Bob)).Unpack(context.Background(), payload, nil)
		require.NoError(t, err)
		require.Equal(t, testMessage(didcommtest.BobDID), msg)
	})

	t.Run("forward headers", func(t *testing.T) {
		msg, _, err := packager.New(partyProvider(f, f.Mediator3)).Unpack(context.Background(),
			forwards[2].Message.PackedMessage, nil)
		require.NoError(t, err)
		require.Equal(t, message.ForwardType, msg.Type)
		require.Equal(t, "all", msg.CustomHeaders["return_route"])
	})
}

func TestRouter_PackRouting_DaveChain(t *testing.T) {
	f := didcommtest.New(t)
	packed := packFor(t, f, didcommtest.DaveDID)

	result, err := New(partyProvider(f, f.Alice)).PackRouting(context.Background(), []string{didcommtest.DaveDID},
		packed, &Options{EncAlgAnon: packer.XC20PECDHESA256KW})
	require.NoError(t, err)

	forwards := result.ForwardMessages()
	require.Len(t, forwards, 1)
	require.Equal(t, []string{didcommtest.MediatorCDID, didcommtest.MediatorBDID, didcommtest.MediatorADID},
		forwards[0].RoutedBy)

	payload := forwards[0].Message.PackedMessage

	for _, hop := range []struct {
		mediator *didcommtest.Party
		next     string
	}{
		{mediator: f.MediatorC, next: didcommtest.MediatorBDID},
		{mediator: f.MediatorB, next: didcommtest.MediatorADID},
		{mediator: f.MediatorA, next: didcommtest.DaveDID},
	} {
		var next string

		next, payload = unwrap(t, f, hop.mediator, payload)
		require.Equal(t, hop.next, next)
	}

	msg, md, err := packager.New(partyProvider(f, f.Dave)).Unpack(context.Background(), payload, nil)
	require.NoError(t, err)
	require.Equal(t, testMessage(didcommtest.DaveDID), msg)
	require.True(t, md.AnonymousSender)
}

func TestRouter_PackRouting_NoMediators(t *testing.T) {
	f := didcommtest.New(t)

	result, err := New(partyProvider(f, f.Alice)).PackRouting(context.Background(), []string{didcommtest.CharlieDID},
		packFor(t, f, didcommtest.CharlieDID), nil)
	require.NoError(t, err)
	require.Nil(t, result)
}
