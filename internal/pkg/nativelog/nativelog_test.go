package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDir(t *testing.T) {
	assert.Equal(t, "/var/log/dl", ResolveDir(" /var/log/dl "))

	t.Setenv(EnvLogDir, "/tmp/from-env")
	assert.Equal(t, "/tmp/from-env", ResolveDir(""))
}

func TestWriter_AppendsToDailyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "devicelink_2024-03-09.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
