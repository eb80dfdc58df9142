// Package config loads i18nmigrate settings from a TOML file, a .env file
// and the process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/phobologic/i18nmigrate/internal/migrate"
)

// DefaultPath is the config file read when -config is not given.
const DefaultPath = ".i18nmigrate.toml"

// Environment variables, also read from .env.
const (
	EnvDictionary  = "I18N_SOURCE_FILE"
	EnvCurry       = "WITH_CURRYING_OF_T_MACRO"
	EnvMode        = "I18NMIGRATE_MODE"
	EnvMaxFileSize = "I18NMIGRATE_MAX_FILE_SIZE"
)

// DefaultMaxFileSize is the size above which source files are skipped.
const DefaultMaxFileSize = 1_000_000

// ErrConfigNotFound is returned when an explicitly requested file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// File is the on-disk configuration.
type File struct {
	// Dictionary is the i18next JSON dictionary used by next-to-macro.
	Dictionary string `toml:"dictionary,omitempty"`
	// Mode is one of next-to-macro, macro-to-runtime, runtime-to-macro.
	Mode string `toml:"mode,omitempty"`
	// Curry enables t(i18n) currying; "", "false" and "no" disable it.
	Curry string `toml:"curry,omitempty"`
	// MaxFileSize skips larger source files. Zero means the default.
	MaxFileSize int `toml:"max_file_size,omitempty"`
	// Names overrides the identifiers and modules the passes match.
	Names migrate.Names `toml:"names"`
}

// Default returns the configuration written by `i18nmigrate init`.
func Default() File {
	return File{
		Dictionary:  "src/locales/en/translation.json",
		Mode:        string(migrate.NextToMacro),
		Curry:       "false",
		MaxFileSize: DefaultMaxFileSize,
		Names:       migrate.DefaultNames(),
	}
}

// Load reads a TOML config file. A missing file yields the zero File unless
// required is set.
func Load(path string, required bool) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return f, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("reading config: %w", err)
	}
	if err := Decode(data, &f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses TOML config text. Unknown keys are rejected.
func Decode(data []byte, f *File) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

// Encode renders f as TOML.
func Encode(f File) ([]byte, error) {
	data, err := toml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Env looks variables up in the process environment first and in a .env
// file second.
type Env struct {
	dotenv map[string]string
	lookup func(string) (string, bool)
}

// LoadEnv reads the .env file at path if it exists. The process
// environment is never modified.
func LoadEnv(path string) (*Env, error) {
	env := &Env{lookup: os.LookupEnv}
	if path == "" {
		return env, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return env, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	env.dotenv = values
	return env, nil
}

// NewEnv builds an Env from fixed values, for tests and embedding.
func NewEnv(values map[string]string) *Env {
	return &Env{dotenv: values, lookup: func(string) (string, bool) { return "", false }}
}

// Get returns the value of key, or "".
func (e *Env) Get(key string) string {
	if e == nil {
		return ""
	}
	if v, ok := e.lookup(key); ok {
		return v
	}
	return e.dotenv[key]
}

// Settings are the effective run settings.
type Settings struct {
	Dictionary  string
	Mode        migrate.Mode
	Curry       bool
	MaxFileSize int
	Names       migrate.Names
}

// Overrides are values given on the command line; empty fields are unset.
type Overrides struct {
	Dictionary  string
	Mode        string
	Curry       string
	MaxFileSize int
}

// Resolve merges the layers, highest precedence first: command line,
// environment, config file, defaults.
func Resolve(f File, env *Env, o Overrides) (Settings, error) {
	pick := func(values ...string) string {
		for _, v := range values {
			if v != "" {
				return v
			}
		}
		return ""
	}

	var s Settings
	s.Dictionary = pick(o.Dictionary, env.Get(EnvDictionary), f.Dictionary)

	mode, err := migrate.ParseMode(pick(o.Mode, env.Get(EnvMode), f.Mode))
	if err != nil {
		return s, err
	}
	s.Mode = mode
	s.Curry = migrate.ParseCurry(pick(o.Curry, env.Get(EnvCurry), f.Curry))

	s.MaxFileSize = o.MaxFileSize
	if s.MaxFileSize == 0 {
		if v := env.Get(EnvMaxFileSize); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return s, fmt.Errorf("%s: invalid size %q", EnvMaxFileSize, v)
			}
			s.MaxFileSize = n
		}
	}
	if s.MaxFileSize == 0 {
		s.MaxFileSize = f.MaxFileSize
	}
	if s.MaxFileSize <= 0 {
		s.MaxFileSize = DefaultMaxFileSize
	}

	s.Names = f.Names.Merge(migrate.DefaultNames())
	if err := s.Names.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
