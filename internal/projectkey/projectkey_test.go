package projectkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom_StableAndUnique(t *testing.T) {
	k1, err := From("/tmp/work/api")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k1, "work/api@"))
	assert.Len(t, strings.TrimPrefix(k1, "work/api@"), 12)

	k1again, err := From("/tmp/work/api")
	require.NoError(t, err)
	assert.Equal(t, k1, k1again)

	k2, err := From("/tmp/personal/api")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestFrom_ShortPath(t *testing.T) {
	k, err := From("/tools")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k, "tools@"))
}
