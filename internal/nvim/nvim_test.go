package nvim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/patchcheck/internal/tree"
)

func TestOverlayPrefersBuffers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	base := tree.NewMem(map[string]string{
		"saved.txt":  "on disk\n",
		"edited.txt": "on disk\n",
	})
	overlay, err := NewOverlay(base, root, map[string][]byte{
		filepath.Join(root, "edited.txt"):         []byte("unsaved\n"),
		filepath.Join(root, "sub", "new.txt"):     []byte("scratch\n"),
		filepath.Join(filepath.Dir(root), "x.go"): []byte("outside\n"),
	})
	require.NoError(t, err)

	content, err := overlay.ReadFile("edited.txt")
	require.NoError(t, err)
	assert.Equal(t, "unsaved\n", string(content))

	content, err = overlay.ReadFile("saved.txt")
	require.NoError(t, err)
	assert.Equal(t, "on disk\n", string(content))

	ok, err := overlay.Exists("sub/new.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = overlay.Exists("../x.go")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = overlay.ReadFile("absent.txt")
	assert.True(t, tree.IsNotFound(err))
}

func TestOverlayRejectsInvalidPaths(t *testing.T) {
	t.Parallel()

	overlay, err := NewOverlay(tree.NewMem(nil), t.TempDir(), nil)
	require.NoError(t, err)

	_, err = overlay.Exists("")
	assert.Error(t, err)
	_, err = overlay.ReadFile(".")
	assert.Error(t, err)
}

func TestNewWithoutInstance(t *testing.T) {
	t.Setenv("NVIM_LISTEN_ADDRESS", "")
	t.Setenv("NVIM", "")

	_, err := New()
	assert.ErrorIs(t, err, ErrNoInstance)
}
