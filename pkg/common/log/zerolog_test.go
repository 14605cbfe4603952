/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProvider_GetLogger(t *testing.T) {
	var buf bytes.Buffer

	l := NewProvider(&buf).GetLogger("aries-framework/didcomm/test")

	l.Infof("packed %d bytes", 42)
	l.Warnf("skipping %s", "mediator")
	l.Debugf("debug")
	l.Errorf("failed: %v", "cause")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "packed 42 bytes", entry["message"])
	require.Equal(t, "aries-framework/didcomm/test", entry[moduleField])

	require.NoError(t, json.Unmarshal([]byte(lines[3]), &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "failed: cause", entry["message"])
	require.NotContains(t, entry, "time")
}

func TestProvider_Options(t *testing.T) {
	t.Run("timestamp", func(t *testing.T) {
		var buf bytes.Buffer

		NewProvider(&buf, WithTimestamp()).GetLogger("m").Infof("hello")

		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Contains(t, entry, "time")
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer

		NewProvider(&buf, WithConsole()).GetLogger("m").Infof("hello")

		require.Contains(t, buf.String(), "hello")
		require.False(t, json.Valid(buf.Bytes()))
	})
}

func TestProvider_Panicf(t *testing.T) {
	var buf bytes.Buffer

	l := NewProvider(&buf).GetLogger("m")

	require.Panics(t, func() {
		l.Panicf("boom %d", 1)
	})
	require.Contains(t, buf.String(), "boom 1")
}
