package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONUsesLoglevelKey(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	Component(logger, "ledger").WithField("rule_id", "r1").Warn("rule failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["loglevel"])
	assert.Equal(t, "ledger", entry["component"])
	assert.Equal(t, "r1", entry["rule_id"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", FormatText, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestBadInput(t *testing.T) {
	_, err := New("loud", FormatText, nil)
	assert.Error(t, err)
	_, err = New("info", "xml", nil)
	assert.Error(t, err)
}
