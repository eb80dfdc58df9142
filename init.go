package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phobologic/i18nmigrate/internal/config"
)

const (
	sentinelStart = "# i18nmigrate:start"
	sentinelEnd   = "# i18nmigrate:end"
)

// runInit implements the `i18nmigrate init` subcommand, which writes (or
// updates) the default settings block in a TOML config file.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("i18nmigrate init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: i18nmigrate init [flags] [path-to-config]

Write the default i18nmigrate settings to a TOML config file. The settings are
wrapped in sentinel comments so they can be regenerated in place on subsequent
runs without touching surrounding content. Creates the file if it does not
exist.

path-to-config defaults to ./%s.

Flags:
`, config.DefaultPath)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	section, err := generateSection()
	if err != nil {
		return err
	}

	// --dry-run with no path: just print the section itself.
	if dryRun && fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.DefaultPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	// The result must still load, or the next run would refuse it.
	var check config.File
	if err := config.Decode([]byte(updated), &check); err != nil {
		return fmt.Errorf("%s: merged config is invalid: %w", path, err)
	}

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote i18nmigrate settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped default settings.
func generateSection() (string, error) {
	data, err := config.Encode(config.Default())
	if err != nil {
		return "", err
	}
	header := `# Settings for i18nmigrate. Command line flags override the environment
# (` + config.EnvDictionary + `, ` + config.EnvCurry + `, ` + config.EnvMode + `, also read from .env),
# which overrides this file.
`
	return sentinelStart + "\n" + header + strings.TrimRight(string(data), "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}

	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
