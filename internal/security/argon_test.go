package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	a := New()

	encoded, err := a.GenerateFromPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := a.VerifyPassword("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPassword("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a := New()

	first, err := a.GenerateFromPassword("same password")
	require.NoError(t, err)
	second, err := a.GenerateFromPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	a := New()

	_, err := a.VerifyPassword("anything", "not-a-phc-string")
	assert.Error(t, err)
}
