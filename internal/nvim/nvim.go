package nvim

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neovim/go-client/nvim"

	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/internal/ui"
)

// ErrNoInstance is returned when no running Neovim can be found.
var ErrNoInstance = errors.New("no running Neovim found (set NVIM_LISTEN_ADDRESS)")

// Manager handles the connection to a running Neovim instance.
type Manager struct {
	nvim *nvim.Nvim
}

// New connects to the Neovim instance named by NVIM_LISTEN_ADDRESS, or by
// NVIM inside a Neovim terminal.
func New() (*Manager, error) {
	for _, key := range []string{"NVIM_LISTEN_ADDRESS", "NVIM"} {
		addr := os.Getenv(key)
		if addr == "" {
			continue
		}
		m, err := Dial(addr)
		if err != nil {
			ui.Debug("Could not connect to Neovim at %s: %v", addr, err)
			continue
		}
		return m, nil
	}
	return nil, ErrNoInstance
}

// Dial connects to the Neovim listening on addr.
func Dial(addr string) (*Manager, error) {
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nvim at %s: %w", addr, err)
	}
	return &Manager{nvim: v}, nil
}

// Close disconnects from Neovim.
func (m *Manager) Close() error {
	if m.nvim == nil {
		return nil
	}
	return m.nvim.Close()
}

// LoadedBuffers returns the current text of every loaded buffer that is
// backed by a file, keyed by absolute path.
func (m *Manager) LoadedBuffers() (map[string][]byte, error) {
	buffers, err := m.nvim.Buffers()
	if err != nil {
		return nil, fmt.Errorf("failed to list nvim buffers: %w", err)
	}

	names := make([]string, len(buffers))
	loaded := make([]bool, len(buffers))
	b := m.nvim.NewBatch()
	for i, buf := range buffers {
		b.BufferName(buf, &names[i])
		b.IsBufferLoaded(buf, &loaded[i])
	}
	if err := b.Execute(); err != nil {
		return nil, fmt.Errorf("failed to inspect nvim buffers: %w", err)
	}

	var keep []int
	for i := range buffers {
		if loaded[i] && names[i] != "" {
			keep = append(keep, i)
		}
	}

	lines := make([][][]byte, len(keep))
	b = m.nvim.NewBatch()
	for j, i := range keep {
		b.BufferLines(buffers[i], 0, -1, true, &lines[j])
	}
	if err := b.Execute(); err != nil {
		return nil, fmt.Errorf("failed to read nvim buffers: %w", err)
	}

	contents := make(map[string][]byte, len(keep))
	for j, i := range keep {
		content := bytes.Join(lines[j], []byte("\n"))
		if len(lines[j]) > 0 {
			content = append(content, '\n')
		}
		contents[names[i]] = content
	}
	return contents, nil
}

// Overlay is a tree whose files are taken from editor buffers when one is
// open, and from the base tree otherwise.
type Overlay struct {
	base    tree.Tree
	buffers map[string][]byte
}

// NewOverlay layers buffers, keyed by absolute path, over base. Buffers
// outside root are ignored.
func NewOverlay(base tree.Tree, root string, buffers map[string][]byte) (*Overlay, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	overlay := &Overlay{base: base, buffers: make(map[string][]byte, len(buffers))}
	for name, content := range buffers {
		rel, err := filepath.Rel(absRoot, name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		key, err := tree.Clean(rel)
		if err != nil {
			continue
		}
		overlay.buffers[key] = content
	}
	ui.Debug("Using %d Neovim buffer(s) under %s", len(overlay.buffers), absRoot)
	return overlay, nil
}

func (o *Overlay) Exists(path string) (bool, error) {
	key, err := tree.Clean(path)
	if err != nil {
		return false, err
	}
	if _, ok := o.buffers[key]; ok {
		return true, nil
	}
	return o.base.Exists(path)
}

func (o *Overlay) ReadFile(path string) ([]byte, error) {
	key, err := tree.Clean(path)
	if err != nil {
		return nil, err
	}
	if content, ok := o.buffers[key]; ok {
		return content, nil
	}
	return o.base.ReadFile(path)
}
