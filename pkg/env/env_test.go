package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameAddsPrefixOnce(t *testing.T) {
	assert.Equal(t, "PARTSBRIDGE_LOG_FORMAT", Name("LOG_FORMAT"))
	assert.Equal(t, "PARTSBRIDGE_LOG_FORMAT", Name("PARTSBRIDGE_LOG_FORMAT"))
}

func TestStringAndBool(t *testing.T) {
	t.Setenv("PARTSBRIDGE_LOG_FORMAT", "  console ")
	t.Setenv("PARTSBRIDGE_LOG_COLOR", "nope")
	t.Setenv("PARTSBRIDGE_FLAG", "true")

	assert.Equal(t, "console", String("LOG_FORMAT", "json"))
	assert.Equal(t, "json", String("MISSING", "json"))
	assert.True(t, Bool("LOG_COLOR", true))
	assert.True(t, Bool("FLAG", false))
	assert.False(t, Bool("MISSING", false))
}
