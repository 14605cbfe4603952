/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

func TestDocumentLocation(t *testing.T) {
	tests := []struct {
		did      string
		useHTTP  bool
		wantURL  string
		wantHost string
	}{
		{
			did:      "did:web:www.example.org",
			wantURL:  "https://www.example.org/.well-known/did.json",
			wantHost: "www.example.org",
		},
		{
			did:      "did:web:www.example.org:user:alice",
			wantURL:  "https://www.example.org/user/alice/did.json",
			wantHost: "www.example.org",
		},
		{
			did:      "did:web:localhost%3A8080",
			useHTTP:  true,
			wantURL:  "http://localhost:8080/.well-known/did.json",
			wantHost: "localhost",
		},
		{
			did:      "did:web:localhost%3A8080:user:alice",
			wantURL:  "https://localhost:8080/user/alice/did.json",
			wantHost: "localhost",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.did, func(t *testing.T) {
			t.Parallel()

			loc, err := documentLocation(tc.did, tc.useHTTP)
			require.NoError(t, err)
			require.Equal(t, tc.wantURL, loc.url)
			require.Equal(t, tc.wantHost, loc.host)
		})
	}

	for _, id := range []string{"www.example.org", "did:www.example.org", "did:example:www.example.org"} {
		_, err := documentLocation(id, false)
		require.Error(t, err, id)
	}
}

func didFor(t *testing.T, s *httptest.Server) string {
	t.Helper()

	u, err := url.Parse(s.URL)
	require.NoError(t, err)

	return "did:web:" + strings.ReplaceAll(u.Host, ":", "%3A")
}

func serve(t *testing.T, tls bool, h http.HandlerFunc) (*httptest.Server, string) {
	t.Helper()

	s := httptest.NewUnstartedServer(h)

	if tls {
		s.StartTLS()
	} else {
		s.Start()
	}

	t.Cleanup(s.Close)

	return s, didFor(t, s)
}

func TestRead(t *testing.T) {
	t.Run("success over TLS", func(t *testing.T) {
		var id string

		s, id := serve(t, true, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, wellKnownPath, r.URL.Path)

			_, err := w.Write([]byte(`{"@context":["https://www.w3.org/ns/did/v1"],"id":"` + id + `"}`))
			require.NoError(t, err)
		})

		v := New(WithHTTPClient(s.Client()))
		require.True(t, v.Accept(DIDMethod))
		require.False(t, v.Accept("key"))

		doc, err := v.Read(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, id, doc.ID)
		require.NoError(t, v.Close())
	})

	t.Run("invalid DID", func(t *testing.T) {
		_, err := New().Read(context.Background(), "did:key:z6Mk")
		require.ErrorContains(t, err, "not a did:web")
	})

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantErr: vdrapi.ErrNotFound.Error(),
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantErr: "unexpected status 500",
		},
		{
			name: "invalid document",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			wantErr: "invalid document",
		},
		{
			name: "document of another DID",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id":"did:web:evil.example"}`))
			},
			wantErr: "document is for did:web:evil.example",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, id := serve(t, false, tc.handler)

			_, err := New(WithHTTP()).Read(context.Background(), id)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}

	t.Run("not found is ErrNotFound", func(t *testing.T) {
		_, id := serve(t, false, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

		_, err := New(WithHTTP()).Read(context.Background(), id)
		require.ErrorIs(t, err, vdrapi.ErrNotFound)
	})

	t.Run("request failure", func(t *testing.T) {
		s := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		id := didFor(t, s)
		s.Close()

		_, err := New(WithHTTP()).Read(context.Background(), id)
		require.ErrorContains(t, err, "fetch http://")
	})
}
