package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noClipboard() (string, error) {
	return "", errors.New("no clipboard in tests")
}

func TestLoadFilesAndMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	patch := filepath.Join(dir, "fix.diff")
	require.NoError(t, os.WriteFile(patch, []byte("--- a/x\n"), 0o644))
	absent := filepath.Join(dir, "absent.diff")

	p := NewWith(strings.NewReader(""), false, noClipboard)
	inputs, missing, err := p.Load([]string{patch, absent}, false)
	require.NoError(t, err)

	assert.Equal(t, []Input{{Name: patch, Content: "--- a/x\n"}}, inputs)
	assert.Equal(t, []string{absent}, missing)
}

func TestLoadStdin(t *testing.T) {
	t.Parallel()

	p := NewWith(strings.NewReader("piped"), false, noClipboard)
	inputs, missing, err := p.Load([]string{Stdin, Stdin}, false)
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, []Input{{Name: "stdin", Content: "piped"}}, inputs)
}

func TestLoadDefaultsToPipedStdin(t *testing.T) {
	t.Parallel()

	p := NewWith(strings.NewReader("piped"), true, noClipboard)
	inputs, _, err := p.Load(nil, false)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "piped", inputs[0].Content)
}

func TestLoadFallsBackToClipboard(t *testing.T) {
	t.Parallel()

	p := NewWith(strings.NewReader(""), false, func() (string, error) { return "from clipboard", nil })
	inputs, _, err := p.Load(nil, false)
	require.NoError(t, err)
	assert.Equal(t, []Input{{Name: Clipboard, Content: "from clipboard"}}, inputs)
}

func TestLoadEmptyClipboard(t *testing.T) {
	t.Parallel()

	p := NewWith(strings.NewReader(""), false, func() (string, error) { return "  \n", nil })
	inputs, missing, err := p.Load(nil, true)
	require.NoError(t, err)
	assert.Empty(t, inputs)
	assert.Empty(t, missing)
}

func TestLoadClipboardError(t *testing.T) {
	t.Parallel()

	p := NewWith(strings.NewReader(""), false, noClipboard)
	_, _, err := p.Load(nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read from clipboard")
}
