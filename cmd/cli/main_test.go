package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashesCmd(t *testing.T) {
	t.Run("success - secret only", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd(&out)
		cmd.SetArgs([]string{"hashes", "--key", "base64:test-app-key"})

		require.NoError(t, cmd.Execute())

		assert.Equal(t, "secret:    cfc7b3cd95efe1bfadd7d73a7c459821\n", out.String())
	})

	t.Run("success - signs stdin", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd(&out)
		cmd.SetIn(strings.NewReader(`{"id":1}`))
		cmd.SetArgs([]string{"hashes", "--key", "base64:test-app-key", "-f", "-"})

		require.NoError(t, cmd.Execute())

		assert.Contains(t, out.String(), "signature: vWIz+y6EdE/fWZ/okreXPwu7nLX6hNTyl4c0Gl3Ipp4=\n")
	})
}

func TestRootCmd_RequiresArgs(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"retry"})

	assert.Error(t, cmd.Execute())
}
