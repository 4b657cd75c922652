package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	DebugColor   = color.New(color.FgHiBlack)
	PromptColor  = color.New(color.FgMagenta)
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	quiet   bool
	verbose bool
)

// SetOutput redirects status lines, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetQuiet suppresses Header, Info, Success and Path lines.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetVerbose enables Debug lines.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// SetColor forces colored output on or off.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

func printf(c *color.Color, always bool, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	c.Fprintf(out, format+"\n", a...)
}

func Header(format string, a ...interface{}) {
	printf(HeaderColor, false, format, a...)
}

func Info(format string, a ...interface{}) {
	printf(InfoColor, false, format, a...)
}

func Success(format string, a ...interface{}) {
	printf(SuccessColor, false, format, a...)
}

func Warning(format string, a ...interface{}) {
	printf(WarningColor, true, format, a...)
}

func Error(format string, a ...interface{}) {
	printf(ErrorColor, true, format, a...)
}

func Path(format string, a ...interface{}) {
	printf(PathColor, false, "  "+format, a...)
}

func Debug(format string, a ...interface{}) {
	mu.Lock()
	enabled := verbose
	mu.Unlock()
	if enabled {
		printf(DebugColor, true, format, a...)
	}
}

func Prompt(format string, a ...interface{}) string {
	return PromptColor.Sprintf(format, a...)
}

// --- Progress Bar ---

// ProgressBar draws a single updating line on stderr. It is safe for
// concurrent Increment calls.
type ProgressBar struct {
	mu      sync.Mutex
	total   int
	prefix  string
	current int
}

func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{total: total, prefix: prefix}
}

func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw()
}

func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.draw()
}

func (p *ProgressBar) Finish() {
	mu.Lock()
	defer mu.Unlock()
	if !quiet && p.total > 0 {
		fmt.Fprintln(out)
	}
}

func (p *ProgressBar) draw() {
	mu.Lock()
	defer mu.Unlock()
	if p.total == 0 || quiet {
		return
	}
	const barLength = 40
	percent := float64(p.current) / float64(p.total)
	filledLength := int(percent * barLength)
	bar := strings.Repeat("█", filledLength) + strings.Repeat("-", barLength-filledLength)

	percentStr := fmt.Sprintf("%.1f%%", percent*100)
	countStr := fmt.Sprintf("[%d/%d]", p.current, p.total)

	fmt.Fprintf(out, "\r%s |%s| %s %s", p.prefix, bar, countStr, percentStr)
}
