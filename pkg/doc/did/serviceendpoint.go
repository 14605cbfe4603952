/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-didcomm-go/pkg/didcomm/didcommerr"
)

// DIDCommMessagingServiceType is the service type of DIDComm v2 messaging endpoints.
const DIDCommMessagingServiceType = "DIDCommMessaging"

// Service DID doc service.
type Service struct {
	ID              string
	Type            string
	ServiceEndpoint ServiceEndpoint
}

// EndpointShape tags the JSON shape a serviceEndpoint was declared with.
type EndpointShape int

// Supported serviceEndpoint shapes.
const (
	ShapeUnknown EndpointShape = iota
	ShapeURI
	ShapeURIs
	ShapeObject
	ShapeObjects
)

// Endpoint is a single normalized DIDComm messaging endpoint.
type Endpoint struct {
	URI         string
	Accept      []string
	RoutingKeys []string
}

// ServiceEndpoint is a tagged union over the serviceEndpoint encodings found in DID documents.
type ServiceEndpoint struct {
	Shape   EndpointShape
	uris    []string
	objects []map[string]interface{}
	raw     json.RawMessage
}

type rawEndpoint struct {
	URI              string   `mapstructure:"uri"`
	Accept           []string `mapstructure:"accept"`
	RoutingKeys      []string `mapstructure:"routing_keys"`
	RoutingKeysCamel []string `mapstructure:"routingKeys"`
}

// NewURIEndpoint returns a serviceEndpoint declared as a plain URI string.
func NewURIEndpoint(uri string) ServiceEndpoint {
	return ServiceEndpoint{Shape: ShapeURI, uris: []string{uri}}
}

// NewURIsEndpoint returns a serviceEndpoint declared as an array of URI strings.
func NewURIsEndpoint(uris ...string) ServiceEndpoint {
	return ServiceEndpoint{Shape: ShapeURIs, uris: uris}
}

// NewObjectEndpoint returns a serviceEndpoint declared as a single endpoint object.
func NewObjectEndpoint(e Endpoint) ServiceEndpoint {
	return ServiceEndpoint{Shape: ShapeObject, objects: []map[string]interface{}{e.toMap()}}
}

// NewObjectsEndpoint returns a serviceEndpoint declared as an array of endpoint objects.
func NewObjectsEndpoint(endpoints ...Endpoint) ServiceEndpoint {
	objects := make([]map[string]interface{}, 0, len(endpoints))
	for _, e := range endpoints {
		objects = append(objects, e.toMap())
	}

	return ServiceEndpoint{Shape: ShapeObjects, objects: objects}
}

// ParseServiceEndpoint dispatches on the JSON shape of a serviceEndpoint value.
// Unrecognized shapes are kept as ShapeUnknown and yield no endpoints.
func ParseServiceEndpoint(data json.RawMessage) (ServiceEndpoint, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ServiceEndpoint{Shape: ShapeUnknown}, nil
	}

	switch trimmed[0] {
	case '"':
		var uri string
		if err := json.Unmarshal(trimmed, &uri); err != nil {
			return ServiceEndpoint{}, fmt.Errorf("parse serviceEndpoint uri: %w", err)
		}

		return NewURIEndpoint(uri), nil
	case '{':
		var obj map[string]interface{}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return ServiceEndpoint{}, fmt.Errorf("parse serviceEndpoint object: %w", err)
		}

		return ServiceEndpoint{Shape: ShapeObject, objects: []map[string]interface{}{obj}}, nil
	case '[':
		return parseEndpointArray(trimmed)
	default:
		return ServiceEndpoint{Shape: ShapeUnknown, raw: append(json.RawMessage(nil), trimmed...)}, nil
	}
}

func parseEndpointArray(data []byte) (ServiceEndpoint, error) {
	var items []interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return ServiceEndpoint{}, fmt.Errorf("parse serviceEndpoint array: %w", err)
	}

	var (
		uris    []string
		objects []map[string]interface{}
	)

	for _, item := range items {
		switch v := item.(type) {
		case string:
			uris = append(uris, v)
		case map[string]interface{}:
			objects = append(objects, v)
		default:
			return ServiceEndpoint{Shape: ShapeUnknown, raw: append(json.RawMessage(nil), data...)}, nil
		}
	}

	switch {
	case len(objects) == 0:
		return ServiceEndpoint{Shape: ShapeURIs, uris: uris}, nil
	case len(uris) == 0:
		return ServiceEndpoint{Shape: ShapeObjects, objects: objects}, nil
	default:
		return ServiceEndpoint{Shape: ShapeUnknown, raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// Endpoints normalizes the declared shape into a list of endpoints. An object without "uri" fails with MissingURI.
func (se ServiceEndpoint) Endpoints() ([]Endpoint, error) {
	switch se.Shape {
	case ShapeURI, ShapeURIs:
		endpoints := make([]Endpoint, 0, len(se.uris))
		for _, uri := range se.uris {
			endpoints = append(endpoints, Endpoint{URI: uri})
		}

		return endpoints, nil
	case ShapeObject, ShapeObjects:
		endpoints := make([]Endpoint, 0, len(se.objects))

		for _, obj := range se.objects {
			e, err := decodeEndpoint(obj)
			if err != nil {
				return nil, err
			}

			endpoints = append(endpoints, *e)
		}

		return endpoints, nil
	default:
		return nil, nil
	}
}

func decodeEndpoint(obj map[string]interface{}) (*Endpoint, error) {
	if _, ok := obj["uri"].(string); !ok {
		return nil, didcommerr.New(didcommerr.MissingURI, "serviceEndpoint object has no uri")
	}

	raw := &rawEndpoint{}

	if err := mapstructure.Decode(obj, raw); err != nil {
		return nil, fmt.Errorf("decode serviceEndpoint object: %w", err)
	}

	routingKeys := raw.RoutingKeys
	if len(routingKeys) == 0 {
		routingKeys = raw.RoutingKeysCamel
	}

	return &Endpoint{URI: raw.URI, Accept: raw.Accept, RoutingKeys: routingKeys}, nil
}

func (e Endpoint) toMap() map[string]interface{} {
	m := map[string]interface{}{"uri": e.URI}

	if len(e.Accept) > 0 {
		m["accept"] = e.Accept
	}

	if len(e.RoutingKeys) > 0 {
		m["routing_keys"] = e.RoutingKeys
	}

	return m
}

// MarshalJSON writes the endpoint back in its declared shape.
func (se ServiceEndpoint) MarshalJSON() ([]byte, error) {
	switch se.Shape {
	case ShapeURI:
		return json.Marshal(se.uris[0])
	case ShapeURIs:
		return json.Marshal(se.uris)
	case ShapeObject:
		return json.Marshal(se.objects[0])
	case ShapeObjects:
		return json.Marshal(se.objects)
	default:
		if len(se.raw) == 0 {
			return []byte("null"), nil
		}

		return se.raw, nil
	}
}

// UnmarshalJSON parses a serviceEndpoint value.
func (se *ServiceEndpoint) UnmarshalJSON(data []byte) error {
	parsed, err := ParseServiceEndpoint(data)
	if err != nil {
		return err
	}

	*se = parsed

	return nil
}

// DIDCommEndpoints returns the endpoints of a DIDCommMessaging service.
func (s *Service) DIDCommEndpoints() ([]Endpoint, error) {
	if s.Type != DIDCommMessagingServiceType {
		return nil, didcommerr.New(didcommerr.NotDIDCommServiceType, s.Type)
	}

	return s.ServiceEndpoint.Endpoints()
}
