package passwords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	hashed, err := h.Hash("pw")
	require.NoError(t, err)

	assert.NotEqual(t, "pw", hashed, "hash must never equal the plaintext")
	assert.True(t, strings.HasPrefix(hashed, "$2a$"), "unexpected hash format %q", hashed)
	assert.True(t, h.Verify("pw", hashed))
	assert.False(t, h.Verify("PW", hashed))
	assert.False(t, h.Verify("", hashed))
}

func TestHasher_SaltedOutput(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestHasher_MalformedHashIsMismatch(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	for _, hashed := range []string{"", "plaintext", "$2a$04$short", "$2a$99$" + strings.Repeat("x", 53)} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("plaintext", hashed))
		})
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.MinCost, NewHasher(1).Cost())
	assert.Equal(t, bcrypt.MaxCost, NewHasher(100).Cost())
	assert.Equal(t, 10, NewHasher(10).Cost())

	hashed, err := NewHasher(1).Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
