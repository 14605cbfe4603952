/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-didcomm-go/internal/didcommtest"
	vdrapi "github.com/hyperledger/aries-didcomm-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-didcomm-go/pkg/secret"
)

type provider struct {
	resolver vdrapi.Resolver
	secrets  secret.Resolver
}

func (p *provider) VDRegistry() vdrapi.Resolver     { return p.resolver }
func (p *provider) SecretResolver() secret.Resolver { return p.secrets }

func TestGetRESTHandlers(t *testing.T) {
	f := didcommtest.New(t)

	t.Run("success", func(t *testing.T) {
		handlers, err := GetRESTHandlers(&provider{resolver: f.Resolver, secrets: f.Alice.SecretStore()},
			WithMaxUnpackDepth(4))
		require.NoError(t, err)
		require.Len(t, handlers, 4)
	})

	t.Run("missing secrets", func(t *testing.T) {
		_, err := GetRESTHandlers(&provider{resolver: f.Resolver})
		require.Error(t, err)
		require.Contains(t, err.Error(), "create didcomm rest command")
	})
}

func TestGetCommandHandlers(t *testing.T) {
	f := didcommtest.New(t)

	handlers, err := GetCommandHandlers(&provider{resolver: f.Resolver, secrets: f.Bob.SecretStore()})
	require.NoError(t, err)
	require.Len(t, handlers, 4)

	_, err = GetCommandHandlers(&provider{secrets: f.Bob.SecretStore()})
	require.Error(t, err)
}
