package patchcheck

import (
	"context"
	"fmt"

	"github.com/sokinpui/patchcheck/internal/config"
	"github.com/sokinpui/patchcheck/internal/source"
	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

// Config for using patchcheck as a library.
type Config struct {
	// Format of content: "auto" (default), "diff", "markdown" or "json".
	Format string
	// Parse diffs the way git does, rejecting miscounted hunks.
	Strict bool
	// Anchor zero-length hunk ranges the way git does.
	GitZeroRanges bool
	// Only check files matching these globs (e.g. 'src/**/*.go').
	Include []string
	// Skip files matching these globs.
	Exclude []string
}

// Check parses content and checks every patch in it against files, a map
// of path to file content. It returns one result per patch.
func Check(content string, files map[string]string, config Config) ([]model.Result, error) {
	app, err := New(cliConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize patchcheck: %w", err)
	}
	app.tree = tree.NewMem(files)

	rep, err := app.check(context.Background(), []source.Input{{Name: "library", Content: content}})
	if err != nil {
		return nil, err
	}
	return rep.Results, nil
}

// Conflicts is Check with default settings, returning every conflict of
// every patch in content.
func Conflicts(content string, files map[string]string) ([]model.Conflict, error) {
	results, err := Check(content, files, Config{})
	if err != nil {
		return nil, err
	}
	return model.Report{Results: results}.Conflicts(), nil
}

func cliConfig(c Config) *config.Config {
	cfg := config.Default()
	if c.Format != "" {
		cfg.Format = c.Format
	}
	cfg.Strict = c.Strict
	cfg.GitZeroRanges = c.GitZeroRanges
	cfg.Include = c.Include
	cfg.Exclude = c.Exclude
	return cfg
}
