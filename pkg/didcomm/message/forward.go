/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
)

// ForwardType is the message type of a routing forward.
const ForwardType = "https://didcomm.org/routing/2.0/forward"

// ForwardBody is the body of a forward message.
type ForwardBody struct {
	Next string `json:"next"`
}

// ForwardMessage is a routing forward: it asks a mediator to deliver the attached packed message to Next.
type ForwardMessage struct {
	ID            string
	To            []string
	Next          string
	ExpiresTime   *time.Time
	Attachments   []Attachment
	CustomHeaders map[string]interface{}
}

// NewForward builds a forward of the packed message to next, addressed to the mediator keys in to.
func NewForward(next string, to []string, packed string, headers map[string]interface{}) (*ForwardMessage, error) {
	att, err := NewJSONAttachment(json.RawMessage(packed))
	if err != nil {
		return nil, fmt.Errorf("new forward to %s: %w", next, err)
	}

	return &ForwardMessage{
		ID:            NewID(),
		To:            to,
		Next:          next,
		Attachments:   []Attachment{*att},
		CustomHeaders: headers,
	}, nil
}

// ForwardFromMessage reads a forward out of a plaintext message.
func ForwardFromMessage(m *Message) (*ForwardMessage, error) {
	if m.Type != ForwardType {
		return nil, didcommerr.New(didcommerr.NotForwardMessageType, m.Type)
	}

	if len(m.To) == 0 {
		return nil, didcommerr.New(didcommerr.MissingTo, m.ID)
	}

	body := &ForwardBody{}

	if len(m.Body) > 0 {
		if err := json.Unmarshal(m.Body, body); err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedMessage, err, "forward body of "+m.ID)
		}
	}

	if body.Next == "" {
		return nil, didcommerr.New(didcommerr.MissingBody, m.ID+": next")
	}

	if len(m.Attachments) == 0 {
		return nil, didcommerr.New(didcommerr.MissingAttachment, m.ID)
	}

	return &ForwardMessage{
		ID:            m.ID,
		To:            m.To,
		Next:          body.Next,
		ExpiresTime:   m.ExpiresTime,
		Attachments:   m.Attachments,
		CustomHeaders: m.CustomHeaders,
	}, nil
}

// Message returns the plaintext message of the forward.
func (f *ForwardMessage) Message() (*Message, error) {
	body, err := json.Marshal(&ForwardBody{Next: f.Next})
	if err != nil {
		return nil, fmt.Errorf("marshal forward body: %w", err)
	}

	return &Message{
		ID:            f.ID,
		Type:          ForwardType,
		Typ:           TypPlain,
		To:            f.To,
		ExpiresTime:   f.ExpiresTime,
		Attachments:   f.Attachments,
		Body:          body,
		CustomHeaders: f.CustomHeaders,
	}, nil
}

// ForwardedMessage returns the packed message carried by the first attachment.
func (f *ForwardMessage) ForwardedMessage() ([]byte, error) {
	if len(f.Attachments) == 0 {
		return nil, didcommerr.New(didcommerr.MissingAttachment, f.ID)
	}

	data := &f.Attachments[0].Data

	switch data.Kind() {
	case DataJSON:
		return data.JSON, nil
	case DataBase64:
		b, err := data.DecodeBase64()
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.InvalidAttachmentDataType, err, f.Attachments[0].ID)
		}

		return b, nil
	default:
		return nil, didcommerr.New(didcommerr.InvalidAttachmentDataType, f.Attachments[0].ID)
	}
}
