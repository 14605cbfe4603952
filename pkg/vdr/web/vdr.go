/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package web resolves did:web identifiers by fetching their document over HTTPS.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

// DIDMethod is the method name served by VDR.
const DIDMethod = "web"

var logger = log.New("aries-framework/vdr/web")

// VDR reads did:web documents.
type VDR struct {
	client  *http.Client
	useHTTP bool
}

// Option configures the did:web VDR.
type Option func(v *VDR)

// WithHTTPClient sets the client used to fetch documents.
func WithHTTPClient(client *http.Client) Option {
	return func(v *VDR) {
		v.client = client
	}
}

// WithHTTP fetches documents over plain http. Only meant for tests and local networks.
func WithHTTP() Option {
	return func(v *VDR) {
		v.useHTTP = true
	}
}

// New returns a did:web VDR.
func New(opts ...Option) *VDR {
	v := &VDR{client: &http.Client{}}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Accept reports whether method is web.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Close is a no-op.
func (v *VDR) Close() error {
	return nil
}

// Read fetches the document of didWeb. The document id must be didWeb itself and, over TLS, every peer
// certificate must be valid for the DID host.
func (v *VDR) Read(ctx context.Context, didWeb string) (*did.Doc, error) {
	loc, err := documentLocation(didWeb, v.useHTTP)
	if err != nil {
		return nil, fmt.Errorf("did:web read %s: %w", didWeb, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.url, nil)
	if err != nil {
		return nil, fmt.Errorf("did:web read %s: build request: %w", didWeb, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("did:web read %s: fetch %s: %w", didWeb, loc.url, err)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Warnf("did:web read %s: close response body: %s", didWeb, e)
		}
	}()

	if resp.TLS != nil {
		for _, cert := range resp.TLS.PeerCertificates {
			if e := cert.VerifyHostname(loc.host); e != nil {
				return nil, fmt.Errorf("did:web read %s: certificate does not match host: %w", didWeb, e)
			}
		}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("did:web read %s: %w", didWeb, vdrapi.ErrNotFound)
	default:
		return nil, fmt.Errorf("did:web read %s: unexpected status %d", didWeb, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("did:web read %s: read body: %w", didWeb, err)
	}

	doc, err := did.ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("did:web read %s: invalid document: %w", didWeb, err)
	}

	if doc.ID != didWeb {
		return nil, fmt.Errorf("did:web read %s: document is for %s", didWeb, doc.ID)
	}

	logger.Debugf("did:web read %s from %s", didWeb, loc.url)

	return doc, nil
}
