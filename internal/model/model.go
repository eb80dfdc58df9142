// Package model defines the run report of an i18nmigrate invocation.
package model

// Status is the outcome for one file.
type Status string

const (
	Migrated  Status = "migrated"
	Unchanged Status = "unchanged"
	Skipped   Status = "skipped"
	Failed    Status = "failed"
)

// FileResult records what happened to a single source file.
type FileResult struct {
	Path       string
	Language   string
	Status     Status
	Translated int
	// Injected names the components and hooks that received a hook call.
	Injected []string
	// Unresolved lists placeholders left in the output without a value.
	Unresolved []string
	// Unscoped counts macro usages outside any component or hook.
	Unscoped int
	Error    string
}

// Report is the complete run summary, ready for serialization.
type Report struct {
	Root  string
	Mode  string
	Write bool
	Files []FileResult
}

// Count returns the number of files with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed.
func (r *Report) Failed() bool {
	return r.Count(Failed) > 0
}
