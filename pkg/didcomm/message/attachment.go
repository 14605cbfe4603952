/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DataKind tells which payload an attachment carries.
type DataKind int

// Attachment payload kinds.
const (
	DataUnknown DataKind = iota
	DataLinks
	DataBase64
	DataJSON
)

// Attachment is a DIDComm v2 attachment.
type Attachment struct {
	ID          string
	Data        AttachmentData
	Description string
	Filename    string
	MediaType   string
	Format      string
	LastModTime *time.Time
	ByteCount   *int64
}

// AttachmentData holds exactly one of Links, Base64 or JSON.
type AttachmentData struct {
	Links  []string        `json:"links,omitempty"`
	Base64 string          `json:"base64,omitempty"`
	JSON   json.RawMessage `json:"json,omitempty"`
	Hash   string          `json:"hash,omitempty"`
	JWS    json.RawMessage `json:"jws,omitempty"`
}

type rawAttachment struct {
	ID          string          `json:"id,omitempty"`
	Data        *AttachmentData `json:"data"`
	Description string          `json:"description,omitempty"`
	Filename    string          `json:"filename,omitempty"`
	MediaType   string          `json:"mediaType,omitempty"`
	Format      string          `json:"format,omitempty"`
	LastModTime *epochTime      `json:"lastModTime,omitempty"`
	ByteCount   *int64          `json:"byteCount,omitempty"`
}

// NewJSONAttachment returns an attachment embedding payload as JSON. A raw JSON payload is embedded as is.
func NewJSONAttachment(payload interface{}) (*Attachment, error) {
	var (
		raw json.RawMessage
		err error
	)

	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	default:
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("new json attachment: %w", err)
		}
	}

	if !json.Valid(raw) {
		return nil, errors.New("new json attachment: payload is not valid JSON")
	}

	return &Attachment{ID: uuid.New().String(), Data: AttachmentData{JSON: raw}}, nil
}

// NewBase64Attachment returns an attachment carrying payload base64url encoded.
func NewBase64Attachment(payload []byte) *Attachment {
	return &Attachment{
		ID:   uuid.New().String(),
		Data: AttachmentData{Base64: base64.RawURLEncoding.EncodeToString(payload)},
	}
}

// NewLinksAttachment returns an attachment referencing its content by links.
func NewLinksAttachment(hash string, links ...string) *Attachment {
	return &Attachment{ID: uuid.New().String(), Data: AttachmentData{Links: links, Hash: hash}}
}

// Kind returns which payload d carries.
func (d *AttachmentData) Kind() DataKind {
	switch {
	case len(d.JSON) > 0:
		return DataJSON
	case d.Base64 != "":
		return DataBase64
	case len(d.Links) > 0:
		return DataLinks
	default:
		return DataUnknown
	}
}

// DecodeBase64 returns the decoded base64 payload. Padded and unpadded base64url as well as standard base64
// are accepted.
func (d *AttachmentData) DecodeBase64() ([]byte, error) {
	trimmed := strings.TrimRight(d.Base64, "=")

	if b, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return b, nil
	}

	b, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode base64 attachment: %w", err)
	}

	return b, nil
}

func (d *AttachmentData) validate() error {
	count := 0

	if len(d.JSON) > 0 {
		count++
	}

	if d.Base64 != "" {
		count++
	}

	if len(d.Links) > 0 {
		count++
	}

	if count != 1 {
		return fmt.Errorf("attachment data must hold exactly one of links, base64 or json, got %d", count)
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Attachment) MarshalJSON() ([]byte, error) {
	if err := a.Data.validate(); err != nil {
		return nil, fmt.Errorf("attachment %s: %w", a.ID, err)
	}

	return json.Marshal(&rawAttachment{
		ID:          a.ID,
		Data:        &a.Data,
		Description: a.Description,
		Filename:    a.Filename,
		MediaType:   a.MediaType,
		Format:      a.Format,
		LastModTime: newEpochTime(a.LastModTime),
		ByteCount:   a.ByteCount,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	raw := &rawAttachment{}
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}

	if raw.Data == nil {
		return fmt.Errorf("attachment %s: missing data", raw.ID)
	}

	if err := raw.Data.validate(); err != nil {
		return fmt.Errorf("attachment %s: %w", raw.ID, err)
	}

	*a = Attachment{
		ID:          raw.ID,
		Data:        *raw.Data,
		Description: raw.Description,
		Filename:    raw.Filename,
		MediaType:   raw.MediaType,
		Format:      raw.Format,
		LastModTime: raw.LastModTime.timePtr(),
		ByteCount:   raw.ByteCount,
	}

	return nil
}
