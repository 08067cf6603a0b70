// ABOUTME: Tests for logger construction
// ABOUTME: Verifies level filtering and formatter selection
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/harperreed/kinship/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "text"})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown", "root", "r1")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "root=r1")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"})

	logger.Info("cascade complete", "root", "r1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cascade complete", line["msg"])
	assert.Equal(t, "r1", line["root"])
}

func TestOrDefault(t *testing.T) {
	assert.NotNil(t, OrDefault(nil))
	l := Discard()
	assert.Same(t, l, OrDefault(l))
}
