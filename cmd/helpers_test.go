package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/docs-chat/internal"
	"github.com/iksnae/docs-chat/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs the root command with args in an isolated config
// directory and returns everything written to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	testutil.IsolateConfigDir(t)
	for _, key := range []string{
		internal.EnvAPIURL,
		internal.EnvPushURL,
		internal.EnvStorage,
		internal.EnvQueryTimeout,
		internal.EnvHealthInterval,
		internal.EnvReconnectAttempts,
		internal.EnvReconnectDelay,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default so runs don't leak into
// each other through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// statePath returns a state database location private to the test
func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.db")
}

func findCommand(t *testing.T, names ...string) *cobra.Command {
	t.Helper()
	found, _, err := rootCmd.Find(names)
	if err != nil {
		t.Fatalf("command %v not found: %v", names, err)
	}
	return found
}
