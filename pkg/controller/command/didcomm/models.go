/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/json"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/packager"
)

// ForwardRequest enables mediator routing of a packed message.
type ForwardRequest struct {
	// Forward wraps the packed message in forward messages for the mediators of the recipients.
	Forward bool `json:"forward,omitempty"`

	// ForwardHeaders are added to every forward message.
	ForwardHeaders map[string]interface{} `json:"forward_headers,omitempty"`
}

// PackPlaintextArgs model
//
// This is used for packing a message as plaintext.
//
// swagger:parameters packPlaintext
type PackPlaintextArgs struct {
	// Message in DIDComm plaintext JSON.
	//
	// required: true
	Message json.RawMessage `json:"message"`

	// FromPriorIssuerKid signs the from_prior claims of the message, a DID or kid.
	FromPriorIssuerKid string `json:"from_prior_issuer_kid,omitempty"`

	ForwardRequest
}

// PackSignedArgs model
//
// This is used for packing a message as JWS.
//
// swagger:parameters packSigned
type PackSignedArgs struct {
	// Message in DIDComm plaintext JSON.
	//
	// required: true
	Message json.RawMessage `json:"message"`

	// SignFrom is a DID or kid.
	//
	// required: true
	SignFrom string `json:"sign_from"`

	FromPriorIssuerKid string `json:"from_prior_issuer_kid,omitempty"`

	ForwardRequest
}

// PackEncryptedArgs model
//
// This is used for packing a message as JWE.
//
// swagger:parameters packEncrypted
type PackEncryptedArgs struct {
	// Message in DIDComm plaintext JSON.
	//
	// required: true
	Message json.RawMessage `json:"message"`

	// To are DIDs or kids. Defaults to the to header of the message.
	To []string `json:"to,omitempty"`

	// From is a DID or kid, used with EncAlgAuth.
	From               string `json:"from,omitempty"`
	SignFrom           string `json:"sign_from,omitempty"`
	FromPriorIssuerKid string `json:"from_prior_issuer_kid,omitempty"`
	EncAlgAuth         string `json:"enc_alg_auth,omitempty"`
	EncAlgAnon         string `json:"enc_alg_anon,omitempty"`
	ProtectSenderID    bool   `json:"protect_sender_id,omitempty"`

	ForwardRequest
}

// ForwardResponse is a forward message packed for a mediator of one final recipient.
type ForwardResponse struct {
	FinalRecipient string   `json:"final_recipient"`
	RoutedBy       []string `json:"routed_by"`
	PackedMessage  string   `json:"packed_message"`
	ToKids         []string `json:"to_kids,omitempty"`
}

// PackResponse model
//
// Response of every pack command.
//
// swagger:response packResponse
type PackResponse struct {
	// in: body
	PackedMessage      string            `json:"packed_message"`
	ToKids             []string          `json:"to_kids,omitempty"`
	FromKid            string            `json:"from_kid,omitempty"`
	SignFromKid        string            `json:"sign_from_kid,omitempty"`
	FromPriorIssuerKid string            `json:"from_prior_issuer_kid,omitempty"`
	Forwards           []ForwardResponse `json:"forwards,omitempty"`
}

// UnpackArgs model
//
// This is used for unpacking a message.
//
// swagger:parameters unpack
type UnpackArgs struct {
	// PackedMessage is a plaintext, signed or encrypted DIDComm message.
	//
	// required: true
	PackedMessage json.RawMessage `json:"packed_message"`

	ExpectDecryptByAllKeys bool `json:"expect_decrypt_by_all_keys,omitempty"`

	// UnwrapReWrappingForward defaults to true.
	UnwrapReWrappingForward *bool `json:"unwrap_re_wrapping_forward,omitempty"`
}

// UnpackResponse model
//
// Response of the unpack command.
//
// swagger:response unpackResponse
type UnpackResponse struct {
	// in: body
	Message  json.RawMessage    `json:"message"`
	Metadata *packager.Metadata `json:"metadata"`
}
