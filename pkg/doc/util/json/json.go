/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package json holds the JSON helpers shared by the DIDComm message model.
package json

import (
	"bytes"
	"encoding/json"

	"golang.org/x/exp/slices"
)

// MarshalCanonical marshals v with object keys sorted at every level and without HTML or slash escaping.
// Numbers are carried through unchanged.
func MarshalCanonical(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	generic, err := decode(b)
	if err != nil {
		return nil, err
	}

	return encode(generic)
}

// MarshalWithCustomFields marshals value merged with custom fields defined in the map into canonical JSON bytes.
// Fields of the value win over custom fields with the same name.
func MarshalWithCustomFields(v interface{}, cf map[string]interface{}) ([]byte, error) {
	vm, err := MergeCustomFields(v, cf)
	if err != nil {
		return nil, err
	}

	return MarshalCanonical(vm)
}

// UnmarshalWithCustomFields unmarshals JSON into value v and puts every top-level field whose name is not
// listed in reserved into custom fields map cf.
func UnmarshalWithCustomFields(data []byte, v interface{}, reserved []string, cf map[string]interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}

	af, err := ToMap(data)
	if err != nil {
		return err
	}

	for k, val := range af {
		if !slices.Contains(reserved, k) {
			cf[k] = val
		}
	}

	return nil
}

// MergeCustomFields converts value to the JSON-like map and merges it with custom fields map cf.
func MergeCustomFields(v interface{}, cf map[string]interface{}) (map[string]interface{}, error) {
	kf, err := ToMap(v)
	if err != nil {
		return nil, err
	}

	for k, val := range cf {
		if _, exists := kf[k]; !exists {
			kf[k] = val
		}
	}

	return kf, nil
}

// ToMap convert object, string or bytes to json object represented by map.
func ToMap(v interface{}) (map[string]interface{}, error) {
	var (
		b   []byte
		err error
	)

	switch cv := v.(type) {
	case []byte:
		b = cv
	case string:
		b = []byte(cv)
	default:
		b, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	var m map[string]interface{}

	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	if err = d.Decode(&m); err != nil {
		return nil, err
	}

	return m, nil
}

func decode(b []byte) (interface{}, error) {
	var generic interface{}

	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	if err := d.Decode(&generic); err != nil {
		return nil, err
	}

	return generic, nil
}

func encode(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}

	e := json.NewEncoder(buf)
	e.SetEscapeHTML(false)

	if err := e.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
