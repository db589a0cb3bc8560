package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaims(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	token := makeToken(t, "a@b.c", exp)

	c, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, "authenticated", c.Role)
	assert.Equal(t, "user-1", c.Subject)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, exp.Unix(), c.ExpiresAt.Unix())
}

func TestParseClaims_Invalid(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := ParseClaims(tok)
		require.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}
