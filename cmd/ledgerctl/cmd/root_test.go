package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Classroom-Bank-Backend/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	e := &env{}
	defer func() { assert.NoError(t, e.close()) }()
	root := newRootCmd(e)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLedgerctl(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "bank.db"))
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema at version 1")

	t.Run("reset-limits on an empty bank", func(t *testing.T) {
		out, err := run(t, "reset-limits")
		require.NoError(t, err)
		assert.Contains(t, out, "reset 0 share types")
	})

	t.Run("verify-balance reports unknown shares", func(t *testing.T) {
		id := testutil.MakeID()
		out, err := run(t, "verify-balance", "--share", id)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(out, id+": "), "unexpected output %q", out)
	})

	t.Run("post-dividends requires flags", func(t *testing.T) {
		_, err := run(t, "post-dividends")
		assert.Error(t, err)
	})

	t.Run("post-dividends rejects unknown share type", func(t *testing.T) {
		_, err := run(t, "post-dividends", "--share-type", testutil.MakeID(), "--instance", testutil.MakeID())
		assert.Error(t, err)
	})
}
