package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luckyroll/casino/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCappedFileCompacts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	f, err := logger.OpenCappedFile(path, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	for i := 1; i <= 25; i++ {
		_, err := fmt.Fprintf(f, "line %d\n", i)
		require.NoError(t, err)
	}

	lines := readLines(t, path)
	require.Len(t, lines, 15)
	assert.Equal(t, "line 11", lines[0])
	assert.Equal(t, "line 25", lines[14])
}

func TestCappedFileMultiLineWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	f, err := logger.OpenCappedFile(path, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	_, err = f.Write([]byte("a\nb\nc\nd\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "d"}, readLines(t, path))
}

func TestCappedFileUncapped(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	f, err := logger.OpenCappedFile(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	for i := range 50 {
		_, err := fmt.Fprintf(f, "line %d\n", i)
		require.NoError(t, err)
	}

	assert.Len(t, readLines(t, path), 50)
}
