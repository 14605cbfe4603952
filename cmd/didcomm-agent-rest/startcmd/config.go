/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger/aries-didcomm-go/pkg/doc/did"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret/localsecret"
)

// agentConfig is the content of the agent config file. JSON is accepted as well as YAML.
//
//	documents:
//	  - id: did:example:alice
//	    keyAgreement: [...]
//	secrets:
//	  - id: did:example:alice#key-x25519-1
//	    type: JsonWebKey2020
//	    privateKeyJwk: {...}
type agentConfig struct {
	Documents []map[string]interface{} `yaml:"documents"`
	Secrets   []map[string]interface{} `yaml:"secrets"`
}

type loadedConfig struct {
	docs    []*did.Doc
	secrets []*secret.Secret
}

// loadConfig reads path, retrying for up to timeout seconds while the file is missing.
func loadConfig(path string, timeout uint64) (*loadedConfig, error) {
	if path == "" {
		return &loadedConfig{}, nil
	}

	var data []byte

	err := backoff.RetryNotify(
		func() error {
			var readErr error

			data, readErr = os.ReadFile(path) //nolint:gosec
			if readErr != nil && !os.IsNotExist(readErr) {
				return backoff.Permanent(readErr)
			}

			return readErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf("config file not available, will sleep for %s before trying again : %s", t, retryErr)
		},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	return parseConfig(data)
}

func parseConfig(data []byte) (*loadedConfig, error) {
	cfg := &agentConfig{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	loaded := &loadedConfig{}

	for i, entry := range cfg.Documents {
		raw, err := json.Marshal(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "document %d", i)
		}

		doc, err := did.ParseDocument(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "document %d", i)
		}

		loaded.docs = append(loaded.docs, doc)
	}

	secrets, err := localsecret.FromMaps(cfg.Secrets)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	loaded.secrets = secrets

	return loaded, nil
}
