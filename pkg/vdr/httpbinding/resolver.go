/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
)

const (
	didLDJson = "application/did+ld+json"
	didJSON   = "application/did+json"
)

// resolveDID makes DID resolution via HTTP.
func (v *VDR) resolveDID(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP create get request failed: %w", err)
	}

	req.Header.Add("Accept", didLDJson)

	if v.resolveAuthToken != "" {
		req.Header.Add("Authorization", v.resolveAuthToken)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	gotBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	contentType := resp.Header.Get("Content-type")

	switch {
	case resp.StatusCode == http.StatusOK &&
		(strings.Contains(contentType, didLDJson) || strings.Contains(contentType, didJSON)):
		return gotBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(vdrapi.ErrNotFound)
	}

	return nil, fmt.Errorf("unsupported response from DID resolver [%v] header [%s] body [%s]",
		resp.StatusCode, contentType, gotBody)
}

// Read resolves didID at the configured universal resolver endpoint
// (https://w3c-ccg.github.io/did-resolution/#bindings-https).
func (v *VDR) Read(ctx context.Context, didID string) (*did.Doc, error) {
	reqURL, err := url.ParseRequestURI(v.endpointURL)
	if err != nil {
		return nil, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, didID)

	var data []byte

	err = backoff.Retry(func() error {
		var e error

		data, e = v.resolveDID(ctx, reqURL.String())
		if e != nil && ctx.Err() == nil {
			logger.Debugf("resolve %s: %s", didID, e)
		}

		return e
	}, backoff.WithContext(v.backOff(), ctx))
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Err
		}

		return nil, err
	}

	if len(data) == 0 {
		return nil, vdrapi.ErrNotFound
	}

	return parseResolution(data)
}

// parseResolution accepts either a DID resolution result or a bare DID document.
func parseResolution(data []byte) (*did.Doc, error) {
	var resolution struct {
		DIDDocument json.RawMessage `json:"didDocument"`
	}

	if err := json.Unmarshal(data, &resolution); err != nil {
		return nil, fmt.Errorf("unmarshal resolution result: %w", err)
	}

	if len(resolution.DIDDocument) > 0 {
		if string(resolution.DIDDocument) == "null" {
			return nil, vdrapi.ErrNotFound
		}

		data = resolution.DIDDocument
	}

	doc, err := did.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse did document: %w", err)
	}

	return doc, nil
}
