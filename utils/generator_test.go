package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrNewID(t *testing.T) {
	generated, err := ParseOrNewID("")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, generated)

	chosen := uuid.New()
	parsed, err := ParseOrNewID(chosen.String())
	require.NoError(t, err)
	assert.Equal(t, chosen, parsed)

	_, err = ParseOrNewID("not-a-uuid")
	assert.Error(t, err)
}
