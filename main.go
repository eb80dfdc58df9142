// i18nmigrate rewrites i18next translation calls into lingui macros, and
// lingui macros into runtime calls and back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/i18nmigrate/internal/config"
	"github.com/phobologic/i18nmigrate/internal/dictionary"
	"github.com/phobologic/i18nmigrate/internal/discover"
	"github.com/phobologic/i18nmigrate/internal/lang"
	"github.com/phobologic/i18nmigrate/internal/migrate"
	"github.com/phobologic/i18nmigrate/internal/model"
	"github.com/phobologic/i18nmigrate/internal/syntax"
	"github.com/phobologic/i18nmigrate/internal/toon"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("i18nmigrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		dictPath    string
		mode        string
		curry       string
		configPath  string
		envPath     string
		write       bool
		report      bool
		listKeys    bool
		maxFileSize int
		langs       string
		skipTests   bool
		verbose     bool
		showVersion bool
	)

	fs.StringVar(&dictPath, "dict", "", "i18next JSON dictionary (required for next-to-macro)")
	fs.StringVar(&mode, "mode", "", "pipeline: next-to-macro, macro-to-runtime or runtime-to-macro")
	fs.StringVar(&curry, "curry", "", "curry t macros with the i18n instance (true/false)")
	fs.StringVar(&configPath, "config", "", "TOML config file (default "+config.DefaultPath+" if present)")
	fs.StringVar(&envPath, "env", ".env", "dotenv file consulted after the process environment")
	fs.BoolVar(&write, "w", false, "write migrated files in place")
	fs.BoolVar(&report, "report", false, "print a TOON report instead of the plain summary")
	fs.BoolVar(&listKeys, "list-keys", false, "list the dictionary keys and exit")
	fs.IntVar(&maxFileSize, "max-file-size", 0, "skip files larger than this many bytes")
	fs.StringVar(&langs, "l", "", "comma-separated languages to include")
	fs.StringVar(&langs, "langs", "", "comma-separated languages to include")
	fs.BoolVar(&skipTests, "skip-tests", false, "leave test files untouched")
	fs.BoolVar(&verbose, "v", false, "log debug output to stderr")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: i18nmigrate [flags] [paths...]
       i18nmigrate init [flags] [path-to-config]

Migrate JavaScript and TypeScript sources between i18next and lingui. Paths
default to the current directory; directories are searched recursively.
Without -w nothing is written.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "i18nmigrate %s\n", version)
		return nil
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	file, err := config.Load(orDefault(configPath, config.DefaultPath), configPath != "")
	if err != nil {
		return err
	}
	env, err := config.LoadEnv(envPath)
	if err != nil {
		return err
	}
	settings, err := config.Resolve(file, env, config.Overrides{
		Dictionary:  dictPath,
		Mode:        mode,
		Curry:       curry,
		MaxFileSize: maxFileSize,
	})
	if err != nil {
		return err
	}
	logger.Debug("settings resolved",
		"mode", settings.Mode,
		"dictionary", settings.Dictionary,
		"curry", settings.Curry,
		"max_file_size", settings.MaxFileSize)

	var dict *dictionary.Dictionary
	if settings.Mode == migrate.NextToMacro || listKeys {
		if dict, err = dictionary.Load(settings.Dictionary); err != nil {
			return err
		}
	}

	if listKeys {
		keys := dict.Keys()
		messages := make([]string, len(keys))
		for i, k := range keys {
			messages[i], _ = dict.ResolveMessage(k)
		}
		_, _ = fmt.Fprintln(stdout, toon.EncodeKeys(keys, messages))
		return nil
	}

	m, err := migrate.New(migrate.Options{
		Mode:       settings.Mode,
		Dictionary: dict,
		Curry:      settings.Curry,
		Names:      settings.Names,
	})
	if err != nil {
		return err
	}

	var langFilter []string
	if langs != "" {
		for _, name := range strings.Split(langs, ",") {
			name = strings.TrimSpace(name)
			if _, ok := lang.Languages[name]; !ok {
				return fmt.Errorf("unsupported language %q (want one of %s)", name, strings.Join(lang.Names(), ", "))
			}
			langFilter = append(langFilter, name)
		}
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := discover.Paths(paths, langFilter)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files found")
	}
	logger.Debug("files discovered", "count", len(files))

	results := make([]model.FileResult, len(files))
	var pending []int
	for i, f := range files {
		results[i] = model.FileResult{Path: f.Path, Language: f.Language}
		switch {
		case skipTests && discover.IsTestFile(f.Path):
			results[i].Status = model.Skipped
			logger.Debug("skipping test file", "path", f.Path)
		case tooLarge(f, settings.MaxFileSize, stderr):
			results[i].Status = model.Skipped
		default:
			pending = append(pending, i)
		}
	}

	if err := migrateConcurrent(ctx, m, files, pending, results, write, logger, stderr); err != nil {
		return err
	}

	r := &model.Report{
		Root:  strings.Join(paths, " "),
		Mode:  string(m.Mode()),
		Write: write,
		Files: results,
	}
	if report {
		_, _ = fmt.Fprintln(stdout, toon.Encode(r))
	} else {
		printSummary(stdout, r)
	}

	if r.Failed() {
		return fmt.Errorf("%d of %d files failed", r.Count(model.Failed), len(files))
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func tooLarge(f discover.FileEntry, maxSize int, stderr io.Writer) bool {
	fi, err := os.Stat(f.Path)
	if err != nil {
		return false // reading will report it
	}
	if fi.Size() > int64(maxSize) {
		_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
		return true
	}
	return false
}

// migrateConcurrent migrates files[pending[...]] on a bounded worker pool and
// stores each outcome at its index in results.
func migrateConcurrent(
	ctx context.Context,
	m *migrate.Migrator,
	files []discover.FileEntry,
	pending []int,
	results []model.FileResult,
	write bool,
	logger *slog.Logger,
	stderr io.Writer,
) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(pending) {
		numWorkers = len(pending)
	}

	work := make(chan int)
	var stderrMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers + 1)

	g.Go(func() error {
		defer close(work)
		for _, idx := range pending {
			select {
			case work <- idx:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range numWorkers {
		g.Go(func() error {
			// Tree-sitter parsers are not safe for concurrent use.
			parsers := make(map[string]*syntax.Parser)

			for idx := range work {
				f := files[idx]
				p, ok := parsers[f.Language]
				if !ok {
					p = syntax.NewParser(lang.Languages[f.Language])
					parsers[f.Language] = p
				}

				res := &results[idx]
				if err := migrateFile(m, p, f, res, write); err != nil {
					res.Status = model.Failed
					res.Error = err.Error()
					stderrMu.Lock()
					_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", f.Path, err)
					stderrMu.Unlock()
					continue
				}
				logger.Debug("file done", "path", f.Path, "status", res.Status, "translated", res.Translated)
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted: %w", err)
	}
	return err
}

// migrateFile runs the pipeline over one file, filling res. The file is
// written only when write is set and the output differs.
func migrateFile(m *migrate.Migrator, p *syntax.Parser, f discover.FileEntry, res *model.FileResult, write bool) error {
	info, err := os.Stat(f.Path)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}

	out, err := m.Migrate(p, src)
	if err != nil {
		return err
	}

	res.Translated = out.Translated
	res.Injected = out.Injected
	res.Unresolved = out.Unresolved
	res.Unscoped = out.Unscoped
	if !out.Changed {
		res.Status = model.Unchanged
		return nil
	}
	res.Status = model.Migrated
	if write {
		if err := os.WriteFile(f.Path, out.Output, info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing: %w", err)
		}
	}
	return nil
}

func printSummary(w io.Writer, r *model.Report) {
	verb := "would migrate"
	if r.Write {
		verb = "migrated"
	}
	for i := range r.Files {
		f := &r.Files[i]
		if f.Status != model.Migrated {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s (%d translations)\n", verb, f.Path, f.Translated)
		for _, name := range f.Unresolved {
			_, _ = fmt.Fprintf(w, "  unresolved placeholder %q\n", name)
		}
		if f.Unscoped > 0 {
			_, _ = fmt.Fprintf(w, "  %d usages outside a component or hook\n", f.Unscoped)
		}
	}
	_, _ = fmt.Fprintf(w, "%d migrated, %d unchanged, %d skipped, %d failed\n",
		r.Count(model.Migrated), r.Count(model.Unchanged), r.Count(model.Skipped), r.Count(model.Failed))
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-dict": true, "--dict": true,
	"-mode": true, "--mode": true,
	"-curry": true, "--curry": true,
	"-config": true, "--config": true,
	"-env": true, "--env": true,
	"-max-file-size": true, "--max-file-size": true,
	"-l": true, "--l": true,
	"-langs": true, "--langs": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
