package funcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "Self-Employed", Title("self-employed"))
	assert.Equal(t, "Business", Title("business"))
}

func TestFormatInt(t *testing.T) {
	out, err := formatInt(5000000)
	require.NoError(t, err)
	assert.Equal(t, "5,000,000", out)

	_, err = formatInt("nope")
	assert.Error(t, err)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "Guest", orDefault("Guest", "  "))
	assert.Equal(t, "Asha", orDefault("Guest", "Asha"))
}
