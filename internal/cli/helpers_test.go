package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a YAML config pointing at a fresh database in a
// temp dir and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "db", "wiki.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	cfg := fmt.Sprintf(`db:
  driver: sqlite3
  url: %q
  max_pool_size: 4
queue: test.queue
http:
  addr: "127.0.0.1:0"
request_timeout: 5s
`, dsn)

	path := filepath.Join(dir, "wikidb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
