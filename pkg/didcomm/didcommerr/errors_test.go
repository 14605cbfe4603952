/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcommerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("matches its kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("unpack: %w", New(MalformedMessage, "APU is different of senderKid"))

		require.True(t, errors.Is(err, MalformedMessage))
		require.False(t, errors.Is(err, MissingTo))
		require.EqualError(t, err, "unpack: malformed message: APU is different of senderKid")

		kind, ok := KindOf(err)
		require.True(t, ok)
		require.Equal(t, MalformedMessage, kind)
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("not found")
		err := Wrap(UnableToResolveDID, cause, "did:example:alice")

		require.ErrorIs(t, err, cause)
		require.ErrorIs(t, err, UnableToResolveDID)
		require.Contains(t, err.Error(), "did:example:alice")
	})

	t.Run("kind of foreign error", func(t *testing.T) {
		kind, ok := KindOf(errors.New("plain"))
		require.False(t, ok)
		require.Equal(t, SomethingWentWrong, kind)
	})

	t.Run("kind names", func(t *testing.T) {
		for k := SomethingWentWrong; k <= UnableToResolveDID; k++ {
			require.NotContains(t, k.String(), "didcomm error kind")
		}

		require.Equal(t, "didcomm error kind 999", Kind(999).String())
		require.Equal(t, "invalid key size: 64", Newf(InvalidKeySize, "%d", 64).Error())
	})
}
