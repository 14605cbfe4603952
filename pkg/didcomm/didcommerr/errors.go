/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcommerr holds the closed set of failure kinds surfaced by DIDComm pack and unpack operations.
package didcommerr

import (
	"errors"
	"fmt"
)

// Kind identifies a DIDComm failure. A Kind is itself an error so it can be used as a target for errors.Is.
type Kind int

// DIDComm failure kinds.
const (
	SomethingWentWrong Kind = iota
	ExpectedDIDFragment
	InvalidAttachmentDataType
	InvalidBase64URLKey
	InvalidDID
	InvalidKeySize
	InvalidSecretFormatForMethodType
	MalformedMessage
	MissingTo
	MissingFrom
	MissingBody
	MissingAttachment
	MissingURI
	NotForwardMessageType
	NotDIDCommServiceType
	VerificationMethodNotFoundForID
	SecretNotFound
	SecretsNotFound
	UnexpectedCurve
	UnsupportedCryptoAlgorithm
	UnsupportedKey
	UnsupportedVerificationMethodType
	SKIDMissing
	UnsupportedParams
	UnableToResolveDID
)

var kindNames = map[Kind]string{
	SomethingWentWrong:                "something went wrong",
	ExpectedDIDFragment:               "expected DID URL with fragment",
	InvalidAttachmentDataType:         "invalid attachment data type",
	InvalidBase64URLKey:               "invalid base64url key",
	InvalidDID:                        "invalid DID",
	InvalidKeySize:                    "invalid key size",
	InvalidSecretFormatForMethodType:  "invalid secret format for verification method type",
	MalformedMessage:                  "malformed message",
	MissingTo:                         "missing to",
	MissingFrom:                       "missing from",
	MissingBody:                       "missing body",
	MissingAttachment:                 "missing attachment",
	MissingURI:                        "missing uri",
	NotForwardMessageType:             "not a forward message type",
	NotDIDCommServiceType:             "not a DIDComm service type",
	VerificationMethodNotFoundForID:   "verification method not found for id",
	SecretNotFound:                    "secret not found",
	SecretsNotFound:                   "secrets not found",
	UnexpectedCurve:                   "unexpected curve",
	UnsupportedCryptoAlgorithm:        "unsupported crypto algorithm",
	UnsupportedKey:                    "unsupported key",
	UnsupportedVerificationMethodType: "unsupported verification method type",
	SKIDMissing:                       "skid missing",
	UnsupportedParams:                 "unsupported params",
	UnableToResolveDID:                "unable to resolve DID",
}

// String returns the human readable name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("didcomm error kind %d", int(k))
}

// Error implements error so a bare Kind can be compared with errors.Is.
func (k Kind) Error() string {
	return k.String()
}

// Error is a DIDComm failure carrying its kind, the offending value and an optional cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// New returns an Error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf returns an Error of the given kind with a formatted detail.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind caused by err.
func Wrap(kind Kind, err error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()

	if e.Detail != "" {
		msg += ": " + e.Detail
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of this error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)

	return ok && k == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return SomethingWentWrong, false
}
