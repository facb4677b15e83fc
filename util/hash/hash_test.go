package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("admin123")
	require.NoError(t, err)
	require.NotEqual(t, "admin123", h)

	require.True(t, Check(h, "admin123"))
	require.False(t, Check(h, "admin124"))
	require.False(t, Check("not-a-hash", "admin123"))
}
