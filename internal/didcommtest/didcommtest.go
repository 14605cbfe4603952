/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcommtest builds the DID documents and secrets used across DIDComm tests. Keys are generated
// for every call, so fixtures never share key material between tests.
package didcommtest

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/keys"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret/localsecret"
	"github.com/hyperledger/aries-didcomm-go/pkg/vdr/memvdr"
)

// DIDs of the test parties.
const (
	AliceDID   = "did:example:alice"
	BobDID     = "did:example:bob"
	CharlieDID = "did:example:charlie"

	Mediator1DID = "did:example:mediator1"
	Mediator2DID = "did:example:mediator2"
	Mediator3DID = "did:example:mediator3"
	Mediator4DID = "did:example:mediator4"

	DaveDID       = "did:example:dave"
	MediatorADID  = "did:example:mediatorA"
	MediatorBDID  = "did:example:mediatorB"
	MediatorCDID  = "did:example:mediatorC"
	BobEndpoint   = "https://bob.example/didcomm"
	mediatorHTTP1 = "https://mediator1.example/didcomm"
	mediatorHTTP2 = "https://mediator2.example/didcomm"
)

// Format selects how key material is written into documents and secrets.
type Format int

// Key material formats.
const (
	FormatJWK Format = iota
	FormatBase58
	FormatMultibase
)

// Relationship places a verification method in a document.
type Relationship int

// Verification relationships.
const (
	Authentication Relationship = iota
	KeyAgreement
	// Unreferenced keys are listed in verificationMethod only.
	Unreferenced
)

// KeySpec describes one generated key.
type KeySpec struct {
	Fragment string
	Curve    string
	Format   Format
	Rel      Relationship
	// NoSecret leaves the private key out of the party's secrets.
	NoSecret bool
}

// Party is a DID document together with the private keys of its verification methods.
type Party struct {
	DID     string
	Doc     *did.Doc
	Secrets []*secret.Secret
	// Keys holds the private JWK of every generated key, indexed by kid.
	Keys map[string]*jwk.JWK
}

// Kid returns the DID URL of a fragment of the party's DID.
func (p *Party) Kid(fragment string) string {
	return p.DID + "#" + fragment
}

// SecretStore returns a store holding the party's secrets.
func (p *Party) SecretStore() *localsecret.Store {
	return localsecret.New(p.Secrets...)
}

// NewParty generates keys and builds the document of a party.
func NewParty(t testing.TB, id string, specs []KeySpec, services ...did.Service) *Party {
	t.Helper()

	p := &Party{DID: id, Keys: map[string]*jwk.JWK{}}

	var opts []did.DocOption

	for _, spec := range specs {
		kid := p.Kid(spec.Fragment)
		priv := GenerateKey(t, kid, spec.Curve)
		vm, sec := encode(t, kid, id, priv, spec)

		p.Keys[kid] = priv

		if !spec.NoSecret {
			p.Secrets = append(p.Secrets, sec)
		}

		switch spec.Rel {
		case Authentication:
			opts = append(opts, did.WithAuthentication(*vm))
		case KeyAgreement:
			opts = append(opts, did.WithKeyAgreement(*vm))
		default:
			opts = append(opts, did.WithVerificationMethod(*vm))
		}
	}

	if len(services) > 0 {
		opts = append(opts, did.WithService(services...))
	}

	p.Doc = did.BuildDoc(id, opts...)

	return p
}

// GenerateKey returns a fresh private key on curve.
func GenerateKey(t testing.TB, kid, curve string) *jwk.JWK {
	t.Helper()

	switch curve {
	case jwk.X25519:
		priv, err := ecdh.X25519().GenerateKey(rand.Reader)
		require.NoError(t, err)

		key, err := jwk.NewOKP(kid, jwk.X25519, priv.PublicKey().Bytes(), priv.Bytes())
		require.NoError(t, err)

		return key
	case jwk.Ed25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		key, err := jwk.NewOKP(kid, jwk.Ed25519, pub, priv.Seed())
		require.NoError(t, err)

		return key
	case jwk.Secp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		require.NoError(t, err)

		return jwk.FromSecp256k1(kid, priv.PubKey(), priv)
	default:
		curves := map[string]elliptic.Curve{jwk.P256: elliptic.P256(), jwk.P384: elliptic.P384(), jwk.P521: elliptic.P521()}

		c, ok := curves[curve]
		require.True(t, ok, "unsupported test curve %s", curve)

		priv, err := ecdsa.GenerateKey(c, rand.Reader)
		require.NoError(t, err)

		key, err := jwk.FromECDSA(kid, &priv.PublicKey, priv)
		require.NoError(t, err)

		return key
	}
}

func encode(t testing.TB, kid, controller string, priv *jwk.JWK, spec KeySpec) (*did.VerificationMethod,
	*secret.Secret) {
	t.Helper()

	vm := &did.VerificationMethod{ID: kid, Controller: controller}
	sec := &secret.Secret{ID: kid}
	key := &keys.Key{ID: kid, Curve: priv.Crv, JWK: priv}

	switch spec.Format {
	case FormatBase58:
		require.Contains(t, []string{jwk.X25519, jwk.Ed25519}, priv.Crv)

		vm.Type = did.Ed25519VerificationKey2018
		if priv.Crv == jwk.X25519 {
			vm.Type = did.X25519KeyAgreementKey2019
		}

		pub, err := keys.EncodeBase58(key.Public())
		require.NoError(t, err)

		pair, err := keys.EncodeBase58(key)
		require.NoError(t, err)

		vm.Material = did.VerificationMaterial{Format: did.MaterialBase58, Value: []byte(pub)}
		sec.Material = did.VerificationMaterial{Format: did.MaterialBase58, Value: []byte(pair)}
	case FormatMultibase:
		require.Contains(t, []string{jwk.X25519, jwk.Ed25519}, priv.Crv)

		vm.Type = did.Ed25519VerificationKey2020
		if priv.Crv == jwk.X25519 {
			vm.Type = did.X25519KeyAgreementKey2020
		}

		pubMB, err := keys.EncodeMultibase(key.Public())
		require.NoError(t, err)

		privMB, err := keys.EncodeMultibase(key)
		require.NoError(t, err)

		vm.Material = did.VerificationMaterial{Format: did.MaterialMultibase, Value: []byte(pubMB)}
		sec.Material = did.VerificationMaterial{Format: did.MaterialMultibase, Value: []byte(privMB)}
	default:
		vm.Type = did.JSONWebKey2020
		if priv.Crv == jwk.Secp256k1 {
			vm.Type = did.EcdsaSecp256k1VerificationKey
		}

		pubJSON, err := json.Marshal(priv.Public())
		require.NoError(t, err)

		privJSON, err := json.Marshal(priv)
		require.NoError(t, err)

		vm.Material = did.VerificationMaterial{Format: did.MaterialJWK, Value: pubJSON}
		sec.Material = did.VerificationMaterial{Format: did.MaterialJWK, Value: privJSON}
	}

	sec.Type = vm.Type

	return vm, sec
}

// Fixture holds every test party and a resolver over their documents.
type Fixture struct {
	Alice   *Party
	Bob     *Party
	Charlie *Party

	// Bob's mediators: Bob declares Mediator1, Mediator2 and an http endpoint routed by Mediator3.
	// Mediator2 is itself routed by Mediator4.
	Mediator1 *Party
	Mediator2 *Party
	Mediator3 *Party
	Mediator4 *Party

	// Dave is reached through the chain MediatorA -> MediatorB -> MediatorC.
	Dave      *Party
	MediatorA *Party
	MediatorB *Party
	MediatorC *Party

	Resolver *memvdr.VDR
}

// Parties returns all parties of the fixture.
func (f *Fixture) Parties() []*Party {
	return []*Party{
		f.Alice, f.Bob, f.Charlie,
		f.Mediator1, f.Mediator2, f.Mediator3, f.Mediator4,
		f.Dave, f.MediatorA, f.MediatorB, f.MediatorC,
	}
}

func messagingService(id string, endpoint did.ServiceEndpoint) did.Service {
	return did.Service{ID: id + "#didcomm-1", Type: did.DIDCommMessagingServiceType, ServiceEndpoint: endpoint}
}

func mediatorParty(t testing.TB, id string, services ...did.Service) *Party {
	t.Helper()

	return NewParty(t, id, []KeySpec{
		{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: FormatJWK, Rel: KeyAgreement},
	}, services...)
}

// New generates all parties.
func New(t testing.TB) *Fixture {
	t.Helper()

	f := &Fixture{}

	f.Alice = NewParty(t, AliceDID, []KeySpec{
		{Fragment: "key-1", Curve: jwk.Ed25519, Format: FormatJWK, Rel: Authentication},
		{Fragment: "key-2", Curve: jwk.P256, Format: FormatJWK, Rel: Authentication},
		{Fragment: "key-3", Curve: jwk.Secp256k1, Format: FormatJWK, Rel: Authentication},
		{Fragment: "key-x25519-not-in-secrets-1", Curve: jwk.X25519, Format: FormatJWK, Rel: KeyAgreement, NoSecret: true},
		{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p256-1", Curve: jwk.P256, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p521-1", Curve: jwk.P521, Format: FormatJWK, Rel: KeyAgreement},
	})

	f.Bob = NewParty(t, BobDID, []KeySpec{
		{Fragment: "key-1", Curve: jwk.Ed25519, Format: FormatBase58, Rel: Authentication},
		{Fragment: "key-2", Curve: jwk.Ed25519, Format: FormatMultibase, Rel: Authentication},
		{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-x25519-2", Curve: jwk.X25519, Format: FormatBase58, Rel: KeyAgreement},
		{Fragment: "key-x25519-3", Curve: jwk.X25519, Format: FormatMultibase, Rel: KeyAgreement},
		{Fragment: "key-p256-1", Curve: jwk.P256, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p256-2", Curve: jwk.P256, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p384-1", Curve: jwk.P384, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p384-2", Curve: jwk.P384, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p521-1", Curve: jwk.P521, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-p521-2", Curve: jwk.P521, Format: FormatJWK, Rel: KeyAgreement},
	}, messagingService(BobDID, did.NewObjectsEndpoint(
		did.Endpoint{URI: Mediator1DID},
		did.Endpoint{URI: Mediator2DID},
		did.Endpoint{URI: BobEndpoint, RoutingKeys: []string{Mediator3DID + "#key-x25519-1"}},
	)))

	f.Charlie = NewParty(t, CharlieDID, []KeySpec{
		{Fragment: "key-1", Curve: jwk.Ed25519, Format: FormatMultibase, Rel: Authentication},
		{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: FormatJWK, Rel: KeyAgreement},
		{Fragment: "key-x25519-2", Curve: jwk.X25519, Format: FormatMultibase, Rel: KeyAgreement},
		{Fragment: "key-x25519-3", Curve: jwk.X25519, Format: FormatBase58, Rel: KeyAgreement},
	})

	f.Mediator1 = mediatorParty(t, Mediator1DID, messagingService(Mediator1DID, did.NewURIEndpoint(mediatorHTTP1)))
	f.Mediator2 = mediatorParty(t, Mediator2DID, messagingService(Mediator2DID, did.NewObjectEndpoint(
		did.Endpoint{URI: mediatorHTTP2, RoutingKeys: []string{Mediator4DID + "#key-x25519-1"}},
	)))
	f.Mediator3 = mediatorParty(t, Mediator3DID)
	f.Mediator4 = mediatorParty(t, Mediator4DID)

	f.Dave = NewParty(t, DaveDID, []KeySpec{
		{Fragment: "key-x25519-1", Curve: jwk.X25519, Format: FormatMultibase, Rel: KeyAgreement},
	}, messagingService(DaveDID, did.NewURIEndpoint(MediatorADID)))
	f.MediatorA = mediatorParty(t, MediatorADID, messagingService(MediatorADID, did.NewURIsEndpoint(MediatorBDID)))
	f.MediatorB = mediatorParty(t, MediatorBDID, messagingService(MediatorBDID, did.NewObjectEndpoint(
		did.Endpoint{URI: MediatorCDID},
	)))
	f.MediatorC = mediatorParty(t, MediatorCDID, messagingService(MediatorCDID,
		did.NewURIEndpoint("https://mediatorC.example/didcomm")))

	docs := make([]*did.Doc, 0, len(f.Parties()))
	for _, p := range f.Parties() {
		docs = append(docs, p.Doc)
	}

	resolver, err := memvdr.New(docs...)
	require.NoError(t, err)

	f.Resolver = resolver

	return f
}
