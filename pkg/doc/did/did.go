/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
	"regexp"
	"strings"
)

const idchar = `a-zA-Z0-9\-_\.%`

var didRegex = regexp.MustCompile(fmt.Sprintf(`^did:[a-z0-9]+:(:+|[:%s]+)*[%s]+$`, idchar, idchar))

// DID is parsed according to the generic syntax: https://w3c.github.io/did-core/#generic-did-syntax
type DID struct {
	Scheme           string // Scheme is always "did"
	Method           string // Method is the specific DID methods
	MethodSpecificID string // MethodSpecificID is the unique ID computed or assigned by the DID method
}

// String returns a string representation of this DID.
func (d *DID) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Scheme, d.Method, d.MethodSpecificID)
}

// Parse parses the string according to the generic DID syntax.
// See https://w3c.github.io/did-core/#generic-did-syntax.
func Parse(did string) (*DID, error) {
	if !didRegex.MatchString(did) {
		return nil, fmt.Errorf(
			"invalid did: %s. Make sure it conforms to the generic DID syntax: https://w3c.github.io/did-core/#generic-did-syntax", //nolint:lll
			did)
	}

	parts := strings.SplitN(did, ":", 3)

	return &DID{
		Scheme:           "did",
		Method:           parts[1],
		MethodSpecificID: parts[2],
	}, nil
}

// IsDID reports whether s is a bare DID (no path, query or fragment).
func IsDID(s string) bool {
	return didRegex.MatchString(s)
}

// DIDURL holds a DID URL: a DID plus optional path, query and fragment.
type DIDURL struct {
	DID      DID
	Path     string
	Query    string
	Fragment string
}

// ParseDIDURL parses a DID URL. The fragment, query and path parts are optional.
func ParseDIDURL(didURL string) (*DIDURL, error) {
	rest := didURL

	var fragment, query, path string

	if i := strings.Index(rest, "#"); i >= 0 {
		fragment = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.Index(rest, "?"); i >= 0 {
		query = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.Index(rest, "/"); i >= 0 {
		path = rest[i:]
		rest = rest[:i]
	}

	d, err := Parse(rest)
	if err != nil {
		return nil, err
	}

	return &DIDURL{DID: *d, Path: path, Query: query, Fragment: fragment}, nil
}

// HasFragment reports whether the DID URL names a single key or service.
func (u *DIDURL) HasFragment() bool {
	return u.Fragment != ""
}

// String returns the DID URL in its serialized form.
func (u *DIDURL) String() string {
	s := u.DID.String() + u.Path

	if u.Query != "" {
		s += "?" + u.Query
	}

	if u.Fragment != "" {
		s += "#" + u.Fragment
	}

	return s
}
