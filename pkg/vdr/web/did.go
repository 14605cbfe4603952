/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
)

const (
	wellKnownPath = "/.well-known/did.json"
	documentFile  = "/did.json"
)

type location struct {
	url  string
	host string
}

// documentLocation maps did:web:<domain>[:<path>...] to the URL of its document. The domain may carry a
// percent encoded port.
func documentLocation(id string, useHTTP bool) (*location, error) {
	parsed, err := did.Parse(id)
	if err != nil {
		return nil, err
	}

	if parsed.Method != DIDMethod {
		return nil, fmt.Errorf("not a did:web: %s", id)
	}

	segments := strings.Split(parsed.MethodSpecificID, ":")

	domain, err := url.PathUnescape(segments[0])
	if err != nil {
		return nil, fmt.Errorf("invalid did:web domain %s: %w", segments[0], err)
	}

	segments[0] = domain

	scheme := "https://"
	if useHTTP {
		scheme = "http://"
	}

	loc := &location{host: strings.Split(domain, ":")[0]}

	if len(segments) == 1 {
		loc.url = scheme + domain + wellKnownPath
	} else {
		loc.url = scheme + strings.Join(segments, "/") + documentFile
	}

	return loc, nil
}
