package internal_review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkTokenRoundTrip(t *testing.T) {
	signed, err := SignLinkToken("secret-1", "researcher@example.edu")
	require.NoError(t, err)

	email, err := VerifyLinkToken("secret-1", signed)
	require.NoError(t, err)
	assert.Equal(t, "researcher@example.edu", email)
}

func TestLinkTokenWrongSecretRejected(t *testing.T) {
	signed, err := SignLinkToken("secret-1", "researcher@example.edu")
	require.NoError(t, err)

	_, err = VerifyLinkToken("secret-2", signed)
	assert.Error(t, err)
}

func TestLinkTokenGarbageRejected(t *testing.T) {
	_, err := VerifyLinkToken("secret-1", "not-a-token")
	assert.Error(t, err)
}
