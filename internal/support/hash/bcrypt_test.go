package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher(t *testing.T) {
	testCases := map[string]struct {
		cost    int
		wantErr bool
	}{
		"zero uses default": {cost: 0},
		"min cost":          {cost: bcrypt.MinCost},
		"too low":           {cost: 1, wantErr: true},
		"too high":          {cost: bcrypt.MaxCost + 1, wantErr: true},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			h, err := NewBcryptHasher(tc.cost)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestBcryptHasher_HashCompare(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hashed, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(hashed, "correct horse"))
	assert.ErrorIs(t, h.Compare(hashed, "wrong"), ErrPasswordMismatch)
	assert.False(t, h.NeedsRehash(hashed))

	stronger, err := NewBcryptHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)
	assert.True(t, stronger.NeedsRehash(hashed))
	assert.True(t, h.NeedsRehash("not-a-hash"))

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
