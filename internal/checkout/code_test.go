package checkout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOrderCodeShape(t *testing.T) {
	code := newOrderCode("AH")
	require.True(t, strings.HasPrefix(code, "AH-"))
	require.Len(t, code, len("AH-")+8)
	require.Equal(t, strings.ToUpper(code), code)
}

func TestNewOrderCodeVaries(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		seen[newOrderCode("AH")] = struct{}{}
	}
	require.Len(t, seen, 1000)
}
