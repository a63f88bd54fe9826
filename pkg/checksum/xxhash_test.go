package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TREASURY_CURRENT.csv")

	sum, err := GetFileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, "", sum, "missing file")

	require.NoError(t, os.WriteFile(path, []byte("reference,amount\nA,1\n"), 0644))
	first, err := GetFileChecksum(path)
	require.NoError(t, err)
	assert.Len(t, first, 16)

	again, err := GetFileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(path, []byte("reference,amount\nA,2\n"), 0644))
	changed, err := GetFileChecksum(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
