/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message is the DIDComm v2 plaintext message model and its wire JSON form.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
	"github.com/hyperledger/aries-didcomm-go/pkg/doc/jose"
	jsonutil "github.com/hyperledger/aries-didcomm-go/pkg/doc/util/json"
)

// Envelope media types carried in the typ field.
const (
	TypPlain     = jose.PlainMediaType
	TypSigned    = jose.SignedMediaType
	TypEncrypted = jose.EncryptedMediaType
)

//nolint:gochecknoglobals
var reservedFields = []string{
	"id", "type", "typ", "from", "to", "created_time", "expires_time", "from_prior", "from_prior_jwt",
	"attachments", "ack", "thid", "pthid", "please_ack", "body",
}

// Message is a DIDComm v2 plaintext message. A Message is not modified after construction; methods that
// change it return a copy.
type Message struct {
	ID            string
	Type          string
	Typ           string
	From          string
	To            []string
	CreatedTime   *time.Time
	ExpiresTime   *time.Time
	FromPrior     *FromPrior
	FromPriorJWT  string
	Attachments   []Attachment
	Thid          string
	Pthid         string
	Ack           []string
	PleaseAck     *bool
	Body          json.RawMessage
	CustomHeaders map[string]interface{}
}

type rawMessage struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Typ          string          `json:"typ,omitempty"`
	From         string          `json:"from,omitempty"`
	To           []string        `json:"to,omitempty"`
	CreatedTime  *epochTime      `json:"created_time,omitempty"`
	ExpiresTime  *epochTime      `json:"expires_time,omitempty"`
	FromPrior    *FromPrior      `json:"from_prior,omitempty"`
	FromPriorJWT string          `json:"from_prior_jwt,omitempty"`
	Attachments  []Attachment    `json:"attachments,omitempty"`
	Thid         string          `json:"thid,omitempty"`
	Pthid        string          `json:"pthid,omitempty"`
	Ack          stringOrList    `json:"ack,omitempty"`
	PleaseAck    *bool           `json:"please_ack,omitempty"`
	Body         json.RawMessage `json:"body"`
}

// NewID returns a fresh message id.
func NewID() string {
	return uuid.New().String()
}

// Parse reads a plaintext message from its wire JSON. A missing body is read as an empty object and a
// missing typ as the plaintext media type.
func Parse(data []byte) (*Message, error) {
	m := &Message{}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedMessage, err, "parse plaintext message")
	}

	return m, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	raw := &rawMessage{}
	custom := make(map[string]interface{})

	if err := jsonutil.UnmarshalWithCustomFields(data, raw, reservedFields, custom); err != nil {
		return err
	}

	if raw.ID == "" {
		return fmt.Errorf("message: missing id")
	}

	if raw.Type == "" {
		return fmt.Errorf("message %s: missing type", raw.ID)
	}

	switch raw.Typ {
	case "":
		raw.Typ = TypPlain
	case TypPlain, TypSigned, TypEncrypted:
	default:
		return fmt.Errorf("message %s: unknown typ '%s'", raw.ID, raw.Typ)
	}

	body := raw.Body
	if len(body) == 0 || string(body) == "null" {
		body = json.RawMessage(`{}`)
	}

	*m = Message{
		ID:           raw.ID,
		Type:         raw.Type,
		Typ:          raw.Typ,
		From:         raw.From,
		To:           raw.To,
		CreatedTime:  raw.CreatedTime.timePtr(),
		ExpiresTime:  raw.ExpiresTime.timePtr(),
		FromPrior:    raw.FromPrior,
		FromPriorJWT: raw.FromPriorJWT,
		Attachments:  raw.Attachments,
		Thid:         raw.Thid,
		Pthid:        raw.Pthid,
		Ack:          raw.Ack,
		PleaseAck:    raw.PleaseAck,
		Body:         body,
	}

	if len(custom) > 0 {
		m.CustomHeaders = custom
	}

	return nil
}

// MarshalJSON implements json.Marshaler. The output is the canonical form returned by JSON.
func (m Message) MarshalJSON() ([]byte, error) {
	return m.JSON()
}

// JSON returns the canonical wire form: keys sorted at every level, no escaping of '/' or HTML characters,
// empty optional fields omitted and body always present.
func (m *Message) JSON() ([]byte, error) {
	body := m.Body
	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}

	typ := m.Typ
	if typ == "" {
		typ = TypPlain
	}

	raw := &rawMessage{
		ID:           m.ID,
		Type:         m.Type,
		Typ:          typ,
		From:         m.From,
		To:           m.To,
		CreatedTime:  newEpochTime(m.CreatedTime),
		ExpiresTime:  newEpochTime(m.ExpiresTime),
		FromPrior:    m.FromPrior,
		FromPriorJWT: m.FromPriorJWT,
		Attachments:  m.Attachments,
		Thid:         m.Thid,
		Pthid:        m.Pthid,
		Ack:          m.Ack,
		PleaseAck:    m.PleaseAck,
		Body:         body,
	}

	data, err := jsonutil.MarshalWithCustomFields(raw, m.CustomHeaders)
	if err != nil {
		return nil, fmt.Errorf("marshal message %s: %w", m.ID, err)
	}

	return data, nil
}

// WithFromPrior returns a copy of m carrying the given FromPrior claims and JWT.
func (m *Message) WithFromPrior(claims *FromPrior, jwt string) *Message {
	c := *m
	c.FromPrior = claims
	c.FromPriorJWT = jwt

	return &c
}

// WithFromPriorJWT returns a copy of m where the FromPrior claims are replaced by their signed JWT.
func (m *Message) WithFromPriorJWT(jwt string) *Message {
	return m.WithFromPrior(nil, jwt)
}

// stringOrList reads a JSON string or array of strings.
type stringOrList []string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = stringOrList{one}

		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}

	*s = many

	return nil
}
