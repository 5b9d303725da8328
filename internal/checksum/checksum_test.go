package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.yaml")

	sum, err := File(path)
	require.NoError(t, err)
	assert.Empty(t, sum, "missing file")

	require.NoError(t, os.WriteFile(path, []byte("title: x\n"), 0o644))
	sum, err = File(path)
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("title: x\n")), sum)

	_, err = File(t.TempDir())
	assert.Error(t, err, "directories cannot be read")
}
