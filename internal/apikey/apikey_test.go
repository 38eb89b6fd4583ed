package apikey_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/notable/internal/apikey"
)

func TestNew(t *testing.T) {
	userID := uuid.New()
	raw, key, err := apikey.New(userID, "laptop")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "nt_"))
	assert.Equal(t, raw[:apikey.PrefixLen], key.KeyPrefix)
	assert.Equal(t, userID, key.UserID)
	assert.Equal(t, "laptop", key.Name)
	assert.NotContains(t, key.KeyHash, raw)
	assert.True(t, apikey.Matches(key.KeyHash, raw))
	assert.False(t, apikey.Matches(key.KeyHash, raw+"x"))
}

func TestNew_Unique(t *testing.T) {
	a, _, err := apikey.New(uuid.New(), "a")
	require.NoError(t, err)
	b, _, err := apikey.New(uuid.New(), "b")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
