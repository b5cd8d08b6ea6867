package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: WARN, Output: &buf})

	log.Info("should not appear")
	assert.Empty(t, buf.String())

	log.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestLogger_IncludesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DEBUG, Output: &buf, Component: "buddy"})

	log.Debug("allocated", Uint32("addr", 64), Bool("zeroed", true))

	out := buf.String()
	assert.True(t, strings.Contains(out, "addr=64"))
	assert.True(t, strings.Contains(out, "zeroed=true"))
	assert.True(t, strings.Contains(out, "[buddy]"))
}

func TestLogger_FatalPanics(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: DEBUG, Output: &buf})

	assert.Panics(t, func() {
		log.Fatal("integrity check failed")
	})
}
