package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/Sternrassler/jira-data-client/pkg/config"
)

func TestKeyring_RoundTrip(t *testing.T) {
	keyring.MockInit()
	k := NewKeyringWithService("jira-data-client-test")

	_, err := k.Token("dev@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, k.SetToken("Dev@Example.com ", "secret"))

	token, err := k.Token("dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	require.NoError(t, k.DeleteToken("dev@example.com"))
	_, err = k.Token("dev@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, k.DeleteToken("dev@example.com"), ErrNotFound)
}

func TestKeyring_NotFoundMatchesConfig(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring()

	_, err := k.Token("nobody@example.com")
	assert.ErrorIs(t, err, config.ErrTokenNotFound)
}

func TestKeyring_Validation(t *testing.T) {
	keyring.MockInit()
	k := NewKeyring()

	_, err := k.Token("  ")
	assert.ErrorIs(t, err, ErrEmptyAccount)
	assert.ErrorIs(t, k.SetToken("", "tok"), ErrEmptyAccount)
	assert.Error(t, k.SetToken("dev@example.com", " "))
	assert.ErrorIs(t, k.DeleteToken(""), ErrEmptyAccount)
}

func TestKeyring_Description(t *testing.T) {
	assert.NotEmpty(t, NewKeyring().Description())
}
