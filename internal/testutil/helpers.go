package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFixture creates a file with the given content, creating parent
// directories as needed. It uses require assertions for test setup.
func WriteFixture(t *testing.T, path string, content []byte) {
	t.Helper()
	fullPath := filepath.Clean(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755),
		"Failed to create directory for fixture %s", fullPath)
	require.NoError(t, os.WriteFile(fullPath, content, 0o644),
		"Failed to write fixture %s", fullPath)
}
