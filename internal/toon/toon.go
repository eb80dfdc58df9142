// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// migration reports.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/i18nmigrate/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))
	parts = append(parts, fmt.Sprintf("mode: %s", encodeValue(r.Mode)))
	parts = append(parts, fmt.Sprintf("write: %t", r.Write))

	statuses := []model.Status{model.Migrated, model.Unchanged, model.Skipped, model.Failed}
	counts := make([]string, len(statuses))
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
		counts[i] = strconv.Itoa(r.Count(s))
	}
	parts = append(parts, formatTabular("summary", names, [][]string{counts}))

	var fileRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		if f.Status == model.Unchanged {
			continue
		}
		fileRows = append(fileRows, []string{
			f.Path,
			f.Language,
			string(f.Status),
			strconv.Itoa(f.Translated),
			strings.Join(f.Injected, " "),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "status", "translated", "injected"}, fileRows))

	var unresolvedRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		for _, name := range f.Unresolved {
			unresolvedRows = append(unresolvedRows, []string{f.Path, name})
		}
	}
	if len(unresolvedRows) > 0 {
		parts = append(parts, formatTabular("unresolved", []string{"file", "placeholder"}, unresolvedRows))
	}

	var unscopedRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		if f.Unscoped > 0 {
			unscopedRows = append(unscopedRows, []string{f.Path, strconv.Itoa(f.Unscoped)})
		}
	}
	if len(unscopedRows) > 0 {
		parts = append(parts, formatTabular("unscoped", []string{"file", "usages"}, unscopedRows))
	}

	var errorRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		if f.Error != "" {
			errorRows = append(errorRows, []string{f.Path, f.Error})
		}
	}
	parts = append(parts, formatTabular("errors", []string{"file", "error"}, errorRows))

	return strings.Join(parts, "\n")
}

// EncodeKeys lists dictionary keys with their messages.
func EncodeKeys(keys, messages []string) string {
	rows := make([][]string, len(keys))
	for i := range keys {
		rows[i] = []string{keys[i], messages[i]}
	}
	return formatTabular("keys", []string{"key", "message"}, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
