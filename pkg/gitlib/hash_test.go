package gitlib_test

import (
	"testing"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/pkg/gitlib"
)

func TestNewHash(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected gitlib.Hash
	}{
		{
			name:  "full lowercase hex",
			input: "0123456789abcdef0123456789abcdef01234567",
			expected: gitlib.Hash{
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67,
			},
		},
		{
			name:  "full uppercase hex",
			input: "0123456789ABCDEF0123456789ABCDEF01234567",
			expected: gitlib.Hash{
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67,
			},
		},
		{
			name:     "malformed input",
			input:    "not-hex",
			expected: gitlib.Hash{},
		},
		{
			name:     "empty string",
			input:    "",
			expected: gitlib.Hash{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := gitlib.NewHash(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestHashString(t *testing.T) {
	const hex = "0123456789abcdef0123456789abcdef01234567"

	hash := gitlib.NewHash(hex)
	assert.Equal(t, hex, hash.String())
}

func TestHashIsZero(t *testing.T) {
	assert.True(t, gitlib.Hash{}.IsZero())
	assert.False(t, gitlib.NewHash("0123456789abcdef0123456789abcdef01234567").IsZero())
}

func TestHashOidRoundTrip(t *testing.T) {
	const hex = "0123456789abcdef0123456789abcdef01234567"

	oid, err := git2go.NewOid(hex)
	require.NoError(t, err)

	hash := gitlib.HashFromOid(oid)
	assert.Equal(t, hex, hash.String())
	assert.Equal(t, oid, hash.ToOid())
}
