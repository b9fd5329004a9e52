package hasher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap keeps the tests fast; production uses DefaultParams.
var cheap = Params{Memory: 8 * 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	h := NewWithParams([]byte("secret-one"), cheap)

	for _, pw := range []string{"pw1", "correct horse battery staple", "пароль", strings.Repeat("x", 200)} {
		encoded, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))

		ok, err := h.Verify(encoded, pw)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", pw)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	h := NewWithParams([]byte("secret-one"), cheap)
	encoded, err := h.Hash("pw1")
	require.NoError(t, err)

	ok, err := h.Verify(encoded, "pw2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltedPerCall(t *testing.T) {
	h := NewWithParams([]byte("secret-one"), cheap)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_DifferentSecretFails(t *testing.T) {
	encoded, err := NewWithParams([]byte("secret-one"), cheap).Hash("pw1")
	require.NoError(t, err)

	ok, err := NewWithParams([]byte("secret-two"), cheap).Verify(encoded, "pw1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_Empty(t *testing.T) {
	_, err := New([]byte("k")).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerify_Malformed(t *testing.T) {
	h := NewWithParams([]byte("k"), cheap)
	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	}
	for _, c := range cases {
		ok, err := h.Verify(c, "pw")
		assert.False(t, ok, c)
		assert.ErrorIs(t, err, ErrMalformedHash, c)
	}
}
