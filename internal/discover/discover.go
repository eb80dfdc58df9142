// Package discover finds JavaScript and TypeScript sources to migrate.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/i18nmigrate/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the walk root, or as given for explicit files
	Language string
}

var skipDirs = map[string]struct{}{
	"node_modules":     {},
	".git":             {},
	".hg":              {},
	".svn":             {},
	"build":            {},
	"dist":             {},
	"out":              {},
	"coverage":         {},
	"storybook-static": {},
	".next":            {},
	".turbo":           {},
	".yarn":            {},
}

// Generated or bundled files that never hold hand-written translations.
var skipSuffixes = []string{".d.ts", ".d.mts", ".d.cts", ".min.js", ".bundle.js"}

// Files discovers migratable source files under root.
// If languages is non-empty, only files matching one of the listed languages are returned.
func Files(root string, languages []string) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[l] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		langName, ok := classify(name, langSet)
		if !ok {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// Paths expands command line arguments: directories are walked with Files,
// files are taken as given. Returned paths are joined with their argument
// so they can be opened directly. An explicit file of an unsupported type
// is an error.
func Paths(args []string, languages []string) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[l] = struct{}{}
	}

	seen := make(map[string]struct{})
	var results []FileEntry
	add := func(e FileEntry) {
		if _, dup := seen[e.Path]; dup {
			return
		}
		seen[e.Path] = struct{}{}
		results = append(results, e)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		if !info.IsDir() {
			if _, err := lang.ForPath(arg); err != nil {
				return nil, err
			}
			if name, ok := classify(filepath.Base(arg), langSet); ok {
				add(FileEntry{Path: filepath.Clean(arg), Language: name})
			}
			continue
		}
		entries, err := Files(arg, languages)
		if err != nil {
			return nil, fmt.Errorf("discovering files in %s: %w", arg, err)
		}
		for _, e := range entries {
			add(FileEntry{Path: filepath.Join(arg, e.Path), Language: e.Language})
		}
	}
	return results, nil
}

var testDirs = map[string]struct{}{
	"__tests__": {},
	"__mocks__": {},
	"test":      {},
	"tests":     {},
	"e2e":       {},
}

// IsTestFile reports whether path follows a JavaScript test file convention:
// a *.test.* or *.spec.* name, or a component under a test directory.
func IsTestFile(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}
	base := strings.ToLower(parts[len(parts)-1])
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec")
}

// classify returns the language of a file name, honoring the filter.
func classify(name string, langSet map[string]struct{}) (string, bool) {
	lower := strings.ToLower(name)
	for _, suffix := range skipSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return "", false
		}
	}
	langName := lang.ForExtension(filepath.Ext(name))
	if langName == "" {
		return "", false
	}
	if len(langSet) > 0 {
		if _, ok := langSet[langName]; !ok {
			return "", false
		}
	}
	return langName, true
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
