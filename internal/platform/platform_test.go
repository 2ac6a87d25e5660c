package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkDir_EnvOverride(t *testing.T) {
	t.Setenv("WORK_DIR", "/srv/allocheck")
	assert.Equal(t, "/srv/allocheck", DefaultWorkDir())
}

func TestDefaultWorkDir_Fallback(t *testing.T) {
	t.Setenv("WORK_DIR", "")
	assert.Contains(t, DefaultWorkDir(), "allocheck")
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
