/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
)

const packedJWE = `{"ciphertext":"abc","protected":"eyJ0eXAiOiJhcHBsaWNhdGlvbi9kaWRjb21tLWVuY3J5cHRlZCtqc29uIn0",` +
	`"recipients":[{"encrypted_key":"k","header":{"kid":"did:example:bob#key-x25519-1"}}],"tag":"t","iv":"i"}`

func TestForward(t *testing.T) {
	fwd, err := NewForward("did:example:bob", []string{"did:example:mediator1#key-x25519-1"}, packedJWE,
		map[string]interface{}{"expires_hint": "soon"})
	require.NoError(t, err)
	require.NotEmpty(t, fwd.ID)

	m, err := fwd.Message()
	require.NoError(t, err)
	require.Equal(t, ForwardType, m.Type)
	require.JSONEq(t, `{"next":"did:example:bob"}`, string(m.Body))

	data, err := m.JSON()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)

	read, err := ForwardFromMessage(parsed)
	require.NoError(t, err)
	require.Equal(t, "did:example:bob", read.Next)
	require.Equal(t, []string{"did:example:mediator1#key-x25519-1"}, read.To)
	require.Equal(t, "soon", read.CustomHeaders["expires_hint"])

	forwarded, err := read.ForwardedMessage()
	require.NoError(t, err)
	require.JSONEq(t, packedJWE, string(forwarded))
}

func TestForward_Base64(t *testing.T) {
	fwd := &ForwardMessage{
		ID:          "1",
		To:          []string{"did:example:mediator1"},
		Next:        "did:example:bob",
		Attachments: []Attachment{*NewBase64Attachment([]byte(packedJWE))},
	}

	forwarded, err := fwd.ForwardedMessage()
	require.NoError(t, err)
	require.Equal(t, packedJWE, string(forwarded))

	fwd.Attachments = []Attachment{*NewLinksAttachment("", "https://example.com/packed")}
	_, err = fwd.ForwardedMessage()
	require.ErrorIs(t, err, didcommerr.InvalidAttachmentDataType)

	fwd.Attachments = []Attachment{{ID: "x", Data: AttachmentData{Base64: "%%%"}}}
	_, err = fwd.ForwardedMessage()
	require.ErrorIs(t, err, didcommerr.InvalidAttachmentDataType)

	fwd.Attachments = nil
	_, err = fwd.ForwardedMessage()
	require.ErrorIs(t, err, didcommerr.MissingAttachment)
}

func TestForwardFromMessage(t *testing.T) {
	att, err := NewJSONAttachment(json.RawMessage(packedJWE))
	require.NoError(t, err)

	valid := func() *Message {
		return &Message{
			ID:          "1",
			Type:        ForwardType,
			To:          []string{"did:example:mediator1"},
			Body:        json.RawMessage(`{"next":"did:example:bob"}`),
			Attachments: []Attachment{*att},
		}
	}

	tests := []struct {
		name   string
		modify func(m *Message)
		kind   didcommerr.Kind
	}{
		{name: "wrong type", modify: func(m *Message) { m.Type = "https://didcomm.org/basicmessage/2.0/message" },
			kind: didcommerr.NotForwardMessageType},
		{name: "no to", modify: func(m *Message) { m.To = nil }, kind: didcommerr.MissingTo},
		{name: "no next", modify: func(m *Message) { m.Body = json.RawMessage(`{}`) }, kind: didcommerr.MissingBody},
		{name: "no body", modify: func(m *Message) { m.Body = nil }, kind: didcommerr.MissingBody},
		{name: "body not an object", modify: func(m *Message) { m.Body = json.RawMessage(`"x"`) },
			kind: didcommerr.MalformedMessage},
		{name: "no attachment", modify: func(m *Message) { m.Attachments = nil }, kind: didcommerr.MissingAttachment},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := valid()
			tc.modify(m)

			_, err := ForwardFromMessage(m)
			require.ErrorIs(t, err, tc.kind)
		})
	}
}
