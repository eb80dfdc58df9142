// Package dictionary loads nested translation dictionaries and resolves
// namespaced key paths against them.
package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

var (
	ErrMissingDictionaryOption = errors.New("translation dictionary path is required")
	ErrDictionaryFileNotFound  = errors.New("translation dictionary not found")
	ErrKeyNotFound             = errors.New("translation key not found")
	ErrNotAStringLeaf          = errors.New("translation is not a non-empty string")
)

// Dictionary is a read-only nested mapping whose leaves are translated
// messages. It is safe for concurrent use.
type Dictionary struct {
	root map[string]any
}

// New wraps an already decoded mapping.
func New(root map[string]any) *Dictionary {
	return &Dictionary{root: root}
}

// Load reads a JSON dictionary from path.
func Load(path string) (*Dictionary, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingDictionaryOption
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrDictionaryFileNotFound, path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON dictionary. The top level must be an object.
func Parse(data []byte) (*Dictionary, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding translation dictionary: %w", err)
	}
	return &Dictionary{root: root}, nil
}

// KeyPath splits a message key such as "common:user.name" into its segments.
// The namespace before the first colon is kept whole; every part after a
// colon is split on dots. A key without a colon is a single segment.
func KeyPath(message string) []string {
	parts := strings.Split(message, ":")
	path := []string{parts[0]}
	for _, p := range parts[1:] {
		path = append(path, strings.Split(p, ".")...)
	}
	return path
}

// Resolve walks keyPath through the dictionary and returns the string leaf.
func (d *Dictionary) Resolve(keyPath []string) (string, error) {
	var cur any = d.root
	for i, seg := range keyPath {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %q in %q", ErrKeyNotFound, seg, strings.Join(keyPath[:i+1], "."))
		}
		next, ok := m[seg]
		if !ok {
			return "", fmt.Errorf("%w: %q in %q", ErrKeyNotFound, seg, strings.Join(keyPath, "."))
		}
		cur = next
	}
	s, ok := cur.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q is %s", ErrNotAStringLeaf, strings.Join(keyPath, "."), describe(cur))
	}
	return s, nil
}

// ResolveMessage resolves the key path derived from a call's message argument.
func (d *Dictionary) ResolveMessage(message string) (string, error) {
	s, err := d.Resolve(KeyPath(message))
	if err != nil {
		return "", fmt.Errorf("message %q: %w", message, err)
	}
	return s, nil
}

// Keys returns every leaf path in "ns:a.b" form, sorted.
func (d *Dictionary) Keys() []string {
	var keys []string
	for ns, v := range d.root {
		if _, ok := v.(map[string]any); !ok {
			keys = append(keys, ns)
			continue
		}
		collect(v, ns+":", &keys)
	}
	sort.Strings(keys)
	return keys
}

func collect(v any, prefix string, out *[]string) {
	m, ok := v.(map[string]any)
	if !ok {
		*out = append(*out, prefix)
		return
	}
	for k, child := range m {
		p := prefix + k
		if _, nested := child.(map[string]any); nested {
			p += "."
		}
		collect(child, p, out)
	}
}

func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return "an empty string"
	case map[string]any:
		return fmt.Sprintf("an object with %d keys", len(v))
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
