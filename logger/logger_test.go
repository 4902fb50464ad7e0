package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Str("series", "8440").Msg("shown")
	assert.Contains(t, buf.String(), `"series":"8440"`)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewWithWriter_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "loud")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log = NewWithWriter(&buf, "")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
