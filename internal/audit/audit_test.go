package audit_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/exchange-chat/internal/audit"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestFileRecorderAppendsOneLinePerCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange_log.txt")

	rec, err := audit.NewFileRecorder(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(days int) {
			defer wg.Done()
			rec.RecordExchange("Alice Smith", days)
		}(i)
	}
	wg.Wait()
	require.NoError(t, rec.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 5)
	for _, line := range lines {
		assert.Contains(t, line, " - exchange command.")
		assert.Contains(t, line, `"client": "Alice Smith"`)
	}
}

func TestFileRecorderKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous line\n"), 0o600))

	rec, err := audit.NewFileRecorder(path)
	require.NoError(t, err)
	rec.RecordExchange("Bob", 1)
	require.NoError(t, rec.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "previous line", lines[0])
	assert.Contains(t, lines[1], `"days": 1`)
}

func TestNewFileRecorderBadPath(t *testing.T) {
	_, err := audit.NewFileRecorder(filepath.Join(t.TempDir(), "missing", "log.txt"))
	require.Error(t, err)
}
