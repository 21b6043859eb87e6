package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCredentials(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("alice\nsecret\n")

	creds, err := AskCredentials(&out, in, "https://github.com/kubicas/repo.git")

	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "secret", creds.Password)
	assert.Contains(t, out.String(), "Authentication required for https://github.com/kubicas/repo.git")
	assert.Contains(t, out.String(), "Username: ")
	assert.Contains(t, out.String(), "Password: ")
}

func TestAskCredentials_CRLFInput(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("alice\r\nsecret\r\n")

	creds, err := AskCredentials(&out, in, "https://github.com/kubicas/repo.git")

	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "secret", creds.Password)
}

func TestAskCredentials_MissingNewlineOnLastLine(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("alice\nsecret")

	creds, err := AskCredentials(&out, in, "git@github.com:kubicas/repo.git")

	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "secret", creds.Password)
}

func TestAskCredentials_NoInput(t *testing.T) {
	var out bytes.Buffer

	_, err := AskCredentials(&out, strings.NewReader(""), "https://github.com/kubicas/repo.git")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading username")
}

func TestAskCredentials_PasswordMissing(t *testing.T) {
	var out bytes.Buffer

	_, err := AskCredentials(&out, strings.NewReader("alice\n"), "https://github.com/kubicas/repo.git")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading password")
}

func TestAskCredentials_EmptyLinesAreEmptyCredentials(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("\n\n")

	creds, err := AskCredentials(&out, in, "https://github.com/kubicas/repo.git")

	require.NoError(t, err)
	assert.Empty(t, creds.Username)
	assert.Empty(t, creds.Password)
}
