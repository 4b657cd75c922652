package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/patchcheck/internal/ui"
)

const (
	// Stdin is the argument and input name for standard input.
	Stdin = "-"
	// Clipboard names input read from the system clipboard.
	Clipboard = "clipboard"
)

// Input is the text of one patch source.
type Input struct {
	Name    string
	Content string
}

// Provider determines and retrieves patch sources.
type Provider struct {
	stdin         io.Reader
	stdinPiped    func() bool
	readClipboard func() (string, error)
	readFile      func(string) ([]byte, error)
}

// New creates a Provider reading the process stdin and the system clipboard.
func New() *Provider {
	return &Provider{
		stdin:         os.Stdin,
		stdinPiped:    isPiped,
		readClipboard: clipboard.ReadAll,
		readFile:      os.ReadFile,
	}
}

// NewWith creates a Provider over the given stdin and clipboard reader.
func NewWith(stdin io.Reader, piped bool, readClipboard func() (string, error)) *Provider {
	return &Provider{
		stdin:         stdin,
		stdinPiped:    func() bool { return piped },
		readClipboard: readClipboard,
		readFile:      os.ReadFile,
	}
}

func isPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// Load reads every named source. Patch files that do not exist are returned
// as missing instead of failing the whole load. With no names, piped stdin
// is read, or the clipboard when stdin is a terminal.
func (p *Provider) Load(names []string, useClipboard bool) (inputs []Input, missing []string, err error) {
	if len(names) == 0 && !useClipboard {
		if p.stdinPiped() {
			names = []string{Stdin}
		} else {
			useClipboard = true
		}
	}

	stdinRead := false
	for _, name := range names {
		if name == Stdin {
			if stdinRead {
				continue
			}
			stdinRead = true
			input, err := p.readStdin()
			if err != nil {
				return nil, nil, err
			}
			inputs = append(inputs, input)
			continue
		}

		ui.Debug("Reading patch %s", name)
		content, err := p.readFile(name)
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read patch %s: %w", name, err)
		}
		inputs = append(inputs, Input{Name: name, Content: string(content)})
	}

	if useClipboard {
		input, ok, err := p.readClip()
		if err != nil {
			return nil, nil, err
		}
		if ok {
			inputs = append(inputs, input)
		}
	}
	return inputs, missing, nil
}

func (p *Provider) readStdin() (Input, error) {
	ui.Header("--- Reading from stdin ---")
	content, err := io.ReadAll(p.stdin)
	if err != nil {
		return Input{}, fmt.Errorf("failed to read from stdin: %w", err)
	}
	return Input{Name: "stdin", Content: string(content)}, nil
}

func (p *Provider) readClip() (Input, bool, error) {
	ui.Header("--- Reading from clipboard ---")
	content, err := p.readClipboard()
	if err != nil {
		return Input{}, false, fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to check.")
		return Input{}, false, nil
	}
	return Input{Name: Clipboard, Content: content}, true, nil
}
