package tree

import "fmt"

// Mem is an in-memory tree backed by a map of path to content.
type Mem struct {
	files map[string]string
}

// NewMem copies files into a new in-memory tree.
func NewMem(files map[string]string) *Mem {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		if key, err := Clean(k); err == nil {
			snapshot[key] = v
		}
	}
	return &Mem{files: snapshot}
}

func (m *Mem) Exists(path string) (bool, error) {
	key, err := Clean(path)
	if err != nil {
		return false, err
	}
	_, ok := m.files[key]
	return ok, nil
}

func (m *Mem) ReadFile(path string) ([]byte, error) {
	key, err := Clean(path)
	if err != nil {
		return nil, err
	}
	content, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return []byte(content), nil
}
