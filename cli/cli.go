package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/sokinpui/patchcheck/internal/config"
	"github.com/sokinpui/patchcheck/internal/parser"
)

// Config holds the merged settings of flags, environment, project file and
// defaults.
type Config = config.Config

// ErrHelp is returned when -h or --help was given.
var ErrHelp = pflag.ErrHelp

// ErrUsage marks errors the flag parser has already printed with the usage.
var ErrUsage = errors.New("invalid usage")

// ParseFlags parses the process arguments and environment.
func ParseFlags() (*Config, error) {
	lookup, err := config.EnvLookup(".")
	if err != nil {
		return nil, err
	}
	return Parse(os.Args[1:], lookup, os.Stderr)
}

// Parse builds a Config from args and the environment visible through
// lookup. Flags win over the environment, which wins over the project file.
func Parse(args []string, lookup config.LookupFunc, usageOut io.Writer) (*Config, error) {
	flags := config.Default()
	fs := newFlagSet(flags, usageOut)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	cfg := config.Default()
	if v, ok := lookup(config.EnvPrefix + "ROOT"); ok {
		cfg.Root = v
	}
	if fs.Changed("root") {
		cfg.Root = flags.Root
	}
	if _, err := config.LoadFile(cfg, cfg.Root); err != nil {
		return nil, err
	}
	if err := config.LoadEnv(cfg, lookup); err != nil {
		return nil, err
	}

	var visitErr error
	fs.Visit(func(f *pflag.Flag) {
		if err := applyFlag(cfg, flags, f.Name); err != nil && visitErr == nil {
			visitErr = err
		}
	})
	if visitErr != nil {
		return nil, visitErr
	}
	cfg.Patches = fs.Args()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFlagSet(cfg *Config, usageOut io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("patchcheck", pflag.ContinueOnError)
	fs.SetOutput(usageOut)

	fs.StringVarP(&cfg.Root, "root", "C", cfg.Root, "Directory the patch paths are relative to.")
	fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Input format: auto, diff, markdown or json.")
	fs.BoolVar(&cfg.Strict, "strict", false, "Parse diffs strictly; hunks with miscounted headers fail to parse.")
	fs.StringSliceVarP(&cfg.Include, "include", "i", nil, "Only check files matching these globs (e.g. 'src/**/*.go').")
	fs.StringSliceVarP(&cfg.Exclude, "exclude", "x", nil, "Skip files matching these globs.")
	fs.StringVarP(&cfg.Rev, "rev", "r", "", "Check against a git revision instead of the working tree.")
	fs.BoolVar(&cfg.Nvim, "nvim", false, "Check against unsaved buffers of the running Neovim.")
	fs.BoolVar(&cfg.GitZeroRanges, "git-zero-ranges", false, "Anchor zero-length hunk ranges the way git does.")
	fs.BoolVar(&cfg.JSON, "json", false, "Print results as JSON.")
	fs.BoolVarP(&cfg.Watch, "watch", "w", false, "Re-check whenever a patch or a patched file changes.")
	fs.BoolVarP(&cfg.Clipboard, "clipboard", "c", false, "Read a patch from the clipboard.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Only print conflicts and errors.")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Print debug output.")
	fs.BoolVarP(&cfg.OutputDiffFix, "output-diff-fix", "o", false, "Print the patch with hunks relocated and headers corrected.")

	fs.Usage = func() {
		fmt.Fprintln(usageOut, "Usage: patchcheck [flags] [patch...]")
		fmt.Fprintln(usageOut, "\nCheck that patches apply cleanly before applying them.")
		fmt.Fprintln(usageOut, "Reads patch files, '-' for stdin, or the clipboard when no patch is given.")
		fmt.Fprintln(usageOut, "\nExample: git diff main | patchcheck -C ../checkout")
		fmt.Fprintln(usageOut, "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}

func applyFlag(cfg, flags *Config, name string) error {
	switch name {
	case "root":
		cfg.Root = flags.Root
	case "format":
		cfg.Format = flags.Format
	case "strict":
		cfg.Strict = flags.Strict
	case "include":
		cfg.Include = flags.Include
	case "exclude":
		cfg.Exclude = flags.Exclude
	case "rev":
		cfg.Rev = flags.Rev
	case "nvim":
		cfg.Nvim = flags.Nvim
	case "git-zero-ranges":
		cfg.GitZeroRanges = flags.GitZeroRanges
	case "json":
		cfg.JSON = flags.JSON
	case "watch":
		cfg.Watch = flags.Watch
	case "clipboard":
		cfg.Clipboard = flags.Clipboard
	case "no-color":
		cfg.NoColor = flags.NoColor
	case "quiet":
		cfg.Quiet = flags.Quiet
	case "verbose":
		cfg.Verbose = flags.Verbose
	case "output-diff-fix":
		cfg.OutputDiffFix = flags.OutputDiffFix
	default:
		return fmt.Errorf("unhandled flag --%s", name)
	}
	return nil
}

// Validate rejects combinations of settings that cannot run together.
func Validate(cfg *Config) error {
	if _, err := parser.ParseFormat(cfg.Format); err != nil {
		return err
	}

	var errs []error
	if cfg.Quiet && cfg.Verbose {
		errs = append(errs, errors.New("--quiet and --verbose are mutually exclusive"))
	}
	if cfg.Rev != "" && cfg.Nvim {
		errs = append(errs, errors.New("--rev and --nvim are mutually exclusive"))
	}
	if cfg.JSON && cfg.OutputDiffFix {
		errs = append(errs, errors.New("--json and --output-diff-fix are mutually exclusive"))
	}
	if cfg.Watch {
		if cfg.JSON || cfg.OutputDiffFix {
			errs = append(errs, errors.New("--watch cannot be combined with --json or --output-diff-fix"))
		}
		if cfg.Clipboard || len(cfg.Patches) == 0 {
			errs = append(errs, errors.New("--watch needs patch files"))
		}
		for _, name := range cfg.Patches {
			if name == "-" {
				errs = append(errs, errors.New("--watch cannot read stdin"))
				break
			}
		}
	}
	return errors.Join(errs...)
}
