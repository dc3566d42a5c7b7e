package dirs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout applies to linux only")
	}
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "importctl"), got)
}

func TestLogFile_CreatesStateDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout applies to linux only")
	}
	base := t.TempDir()
	t.Setenv("XDG_STATE_HOME", base)

	got, err := LogFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "importctl", "importctl.log"), got)

	st, err := os.Stat(filepath.Dir(got))
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}

func TestEnsure_EmptyPath(t *testing.T) {
	assert.Error(t, Ensure(""))
}
