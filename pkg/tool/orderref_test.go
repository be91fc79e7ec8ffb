package tool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOrderReference_AlphanumericOnly(t *testing.T) {
	ref := GenerateOrderReference(42)
	require.NotEmpty(t, ref)
	for _, r := range ref {
		isAlnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		require.Truef(t, isAlnum, "reference %q contains non-alphanumeric rune %q", ref, r)
	}
}

func TestGenerateOrderReference_UniqueWithinSameTick(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		ref := GenerateOrderReference(7)
		_, dup := seen[ref]
		require.Falsef(t, dup, "duplicate reference %q after %d generations", ref, i)
		seen[ref] = struct{}{}
	}
}
