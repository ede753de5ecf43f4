package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/pos-qr-go/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.Logging{Level: "debug", Format: "json"}, &buf)

	logger.WithField("sessionId", "S1").Debug("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "S1", entry["sessionId"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewUnknownLevel(t *testing.T) {
	logger := NewWithOutput(config.Logging{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}
