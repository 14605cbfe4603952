/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package localsecret is an in-memory secret.Resolver.
package localsecret

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

// Store keeps secrets in memory, keyed by kid.
type Store struct {
	mutex   sync.RWMutex
	secrets map[string]*secret.Secret
}

// New returns a store holding secrets.
func New(secrets ...*secret.Secret) *Store {
	s := &Store{secrets: map[string]*secret.Secret{}}
	s.Add(secrets...)

	return s
}

// Add stores secrets, replacing any with the same kid.
func (s *Store) Add(secrets ...*secret.Secret) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, sec := range secrets {
		s.secrets[sec.ID] = sec
	}
}

// FindKey returns the secret for kid or nil if it is unknown.
func (s *Store) FindKey(_ context.Context, kid string) (*secret.Secret, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.secrets[kid], nil
}

// FindKeys returns the kids held by the store, in input order.
func (s *Store) FindKeys(_ context.Context, kids []string) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var found []string

	for _, kid := range kids {
		if _, ok := s.secrets[kid]; ok {
			found = append(found, kid)
		}
	}

	return found, nil
}

// LoadJSON adds the secrets of a JSON array.
func (s *Store) LoadJSON(data []byte) error {
	var secrets []*secret.Secret

	if err := json.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	s.Add(secrets...)

	return nil
}

// LoadYAML adds the secrets of a YAML sequence. Entries use the same keys as the JSON form.
func (s *Store) LoadYAML(data []byte) error {
	var entries []map[string]interface{}

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	secrets, err := FromMaps(entries)
	if err != nil {
		return err
	}

	s.Add(secrets...)

	return nil
}

// FromMaps converts generic decoded entries, as produced by YAML or JSON decoders, into secrets.
func FromMaps(entries []map[string]interface{}) ([]*secret.Secret, error) {
	secrets := make([]*secret.Secret, 0, len(entries))

	for i, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("secret %d: %w", i, err)
		}

		sec := &secret.Secret{}
		if err = json.Unmarshal(data, sec); err != nil {
			return nil, fmt.Errorf("secret %d: %w", i, err)
		}

		secrets = append(secrets, sec)
	}

	return secrets, nil
}
