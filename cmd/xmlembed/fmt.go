package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/antchfx/xmlembed"
	"github.com/antchfx/xmlembed/config"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] <path|glob> [path|glob...]",
	Short: "Format XML files and their embedded code",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().Bool("check", false, "list files whose formatting differs and exit non-zero")
	fmtCmd.Flags().Bool("stdout", false, "print formatted documents to stdout instead of rewriting files")
	fmtCmd.Flags().Bool("diff", false, "print a unified diff of the changes instead of rewriting files")
	fmtCmd.Flags().Int("jobs", 0, "files formatted in parallel (default: number of CPUs)")
	fmtCmd.Flags().Duration("timeout", 0, "time budget of each embedded block printer (default 5s)")
	fmtCmd.Flags().StringSlice("exclude", nil, "doublestar patterns of files to skip")
}

type fmtOptions struct {
	Check   bool
	Stdout  bool
	Diff    bool
	Jobs    int
	Timeout time.Duration
	Exclude []string
	Config  string
}

// fileResult is the outcome of formatting one file.
type fileResult struct {
	Path      string
	Changed   bool
	Skipped   bool
	Err       error
	Original  string
	Formatted string
	Fallbacks []xmlembed.Fallback
	output    []byte
}

var (
	changedColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	diffAdd      = color.New(color.FgGreen)
	diffDel      = color.New(color.FgRed)
)

func runFmt(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var opts fmtOptions
	var err error
	flags := cmd.Flags()
	if opts.Check, err = flags.GetBool("check"); err != nil {
		return err
	}
	if opts.Stdout, err = flags.GetBool("stdout"); err != nil {
		return err
	}
	if opts.Diff, err = flags.GetBool("diff"); err != nil {
		return err
	}
	if opts.Jobs, err = flags.GetInt("jobs"); err != nil {
		return err
	}
	if opts.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return err
	}
	if opts.Exclude, err = flags.GetStringSlice("exclude"); err != nil {
		return err
	}
	if opts.Config, err = flags.GetString("config"); err != nil {
		return err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return err
	}
	if opts.Stdout && (opts.Check || opts.Diff) {
		return errors.New("fmt: --stdout cannot be used with --check or --diff")
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := formatFiles(ctx, args, opts, logger)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "fmt: %v\n", err)
		return err
	}

	hasErrors, hasChanges := renderResults(cmd.OutOrStdout(), os.Stderr, results, opts, quiet)
	if hasErrors {
		return errors.New("fmt: failed to format some files")
	}
	if opts.Check && hasChanges {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

// formatFiles formats every file named by args. Files are formatted
// concurrently; results come back in path order.
func formatFiles(ctx context.Context, args []string, opts fmtOptions, logger *zap.Logger) ([]fileResult, error) {
	files, err := collectFiles(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no XML files found")
	}

	formatters := &formatterCache{opts: opts, logger: logger, byConfig: make(map[string]*formatterEntry)}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			results[i] = formatFile(ctx, path, opts, formatters)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func formatFile(ctx context.Context, path string, opts fmtOptions, formatters *formatterCache) fileResult {
	res := fileResult{Path: path}
	entry, err := formatters.forFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	skip, err := excluded(path, entry.cfg.Dir(), entry.cfg.Exclude)
	if err == nil && !skip {
		skip, err = excluded(path, "", opts.Exclude)
	}
	if err != nil {
		res.Err = err
		return res
	}
	if skip {
		res.Skipped = true
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	src, err := decodeSource(data)
	if err != nil {
		res.Err = err
		return res
	}
	out, err := entry.f.Format(ctx, src.Text)
	if err != nil {
		res.Err = err
		return res
	}
	res.Original = src.Text
	res.Formatted = out.Text
	res.Fallbacks = out.Fallbacks
	res.Changed = out.Text != src.Text

	if res.output, err = src.encode(out.Text); err != nil {
		res.Err = err
		return res
	}
	if opts.Check || opts.Stdout || opts.Diff || !res.Changed {
		return res
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, res.output, mode.Perm()); err != nil {
		res.Err = err
	}
	return res
}

type formatterEntry struct {
	cfg *config.Config
	f   *xmlembed.Formatter
}

// formatterCache builds one formatter per config file.
type formatterCache struct {
	opts   fmtOptions
	logger *zap.Logger

	mu       sync.Mutex
	explicit *formatterEntry
	byConfig map[string]*formatterEntry
}

func (c *formatterCache) forFile(path string) (*formatterEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.Config != "" {
		if c.explicit == nil {
			cfg, err := config.Load(c.opts.Config)
			if err != nil {
				return nil, err
			}
			if c.explicit, err = c.build(cfg); err != nil {
				return nil, err
			}
		}
		return c.explicit, nil
	}

	cfgPath, ok, err := config.Find(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if entry, ok := c.byConfig[cfgPath]; ok {
		return entry, nil
	}
	cfg := config.Default()
	if ok {
		if cfg, err = config.Load(cfgPath); err != nil {
			return nil, err
		}
	}
	entry, err := c.build(cfg)
	if err != nil {
		return nil, err
	}
	c.byConfig[cfgPath] = entry
	return entry, nil
}

func (c *formatterCache) build(cfg *config.Config) (*formatterEntry, error) {
	opts, err := cfg.Options(c.logger)
	if err != nil {
		return nil, errors.Wrap(err, cfg.Path)
	}
	if c.opts.Timeout > 0 {
		opts = append(opts, xmlembed.WithTimeout(c.opts.Timeout))
	}
	f, err := xmlembed.New(opts...)
	if err != nil {
		return nil, err
	}
	return &formatterEntry{cfg: cfg, f: f}, nil
}

func renderResults(stdout, stderr io.Writer, results []fileResult, opts fmtOptions, quiet bool) (hasErrors, hasChanges bool) {
	for _, res := range results {
		if res.Skipped {
			continue
		}
		if res.Err != nil {
			hasErrors = true
			errorColor.Fprintf(stderr, "fmt: %s: %v\n", res.Path, res.Err)
			continue
		}
		if !quiet {
			for _, fb := range res.Fallbacks {
				warnColor.Fprintf(stderr, "fmt: %s: %s left unformatted: %v\n", res.Path, fb.Path, fb.Err)
			}
		}
		if res.Changed {
			hasChanges = true
		}

		switch {
		case opts.Stdout:
			_, _ = stdout.Write(res.output)
		case opts.Diff:
			if res.Changed {
				renderDiff(stdout, res.Path, res.Original, res.Formatted)
			}
		case opts.Check:
			if res.Changed && !quiet {
				fmt.Fprintln(stdout, res.Path)
			}
		default:
			if res.Changed && !quiet {
				changedColor.Fprintf(stdout, "reformatted %s\n", res.Path)
			}
		}
	}
	return hasErrors, hasChanges
}

func renderDiff(w io.Writer, path, before, after string) {
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	unified := fmt.Sprint(gotextdiff.ToUnified("a/"+filepath.ToSlash(path), "b/"+filepath.ToSlash(path), before, edits))
	var buf bytes.Buffer
	for _, line := range strings.SplitAfter(unified, "\n") {
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
		case strings.HasPrefix(text, "+"):
			text = diffAdd.Sprint(text)
		case strings.HasPrefix(text, "-"):
			text = diffDel.Sprint(text)
		}
		buf.WriteString(text)
		if strings.HasSuffix(line, "\n") {
			buf.WriteByte('\n')
		}
	}
	_, _ = w.Write(buf.Bytes())
}
