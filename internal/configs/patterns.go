package configs

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
)

//go:embed templates/confguard.toml
var DefaultPatternTemplate []byte

//go:embed templates/dot.envrc
var DefaultEnvrcTemplate []byte

// PatternSet selects the files handled by the encryption commands.
type PatternSet struct {
	GPGKey            string   `toml:"gpg_key" yaml:"gpg_key"`
	FileExtensionsEnc []string `toml:"file_extensions_enc" yaml:"file_extensions_enc"`
	FileNamesEnc      []string `toml:"file_names_enc" yaml:"file_names_enc"`
	FileExtensionsDec []string `toml:"file_extensions_dec" yaml:"file_extensions_dec"`
	FileNamesDec      []string `toml:"file_names_dec" yaml:"file_names_dec"`
	Exclude           []string `toml:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// LoadPatternSet reads the pattern set at path. A missing file fails with
// ErrConfigNotFound.
func LoadPatternSet(path string) (*PatternSet, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", cgerrors.ErrConfigNotFound, path)
		}
		return nil, cgerrors.IO("stat", path, err)
	}

	set := &PatternSet{}
	md, err := toml.DecodeFile(path, set)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern set %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("failed to load pattern set %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	set.normalize()
	return set, nil
}

// SavePatternSet writes set to path.
func SavePatternSet(path string, set *PatternSet) error {
	if err := SaveTOML(path, set); err != nil {
		return fmt.Errorf("failed to save pattern set: %w", err)
	}
	return nil
}

// WritePatternTemplate writes template to path unless a file already
// exists there. An empty template selects the embedded default. It
// reports whether the file was written.
func WritePatternTemplate(path string, template []byte) (bool, error) {
	if len(template) == 0 {
		template = DefaultPatternTemplate
	}

	probe := &PatternSet{}
	if _, err := toml.Decode(string(template), probe); err != nil {
		return false, fmt.Errorf("invalid pattern template: %w", err)
	}

	exists, err := pathutil.Exists(path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, cgerrors.IO("mkdir", filepath.Dir(path), err)
	}
	if err := pathutil.WriteFileAtomic(path, template, 0600); err != nil {
		return false, err
	}
	return true, nil
}

// normalize strips leading dots from extensions and drops empty entries.
func (p *PatternSet) normalize() {
	clean := func(values []string, trimDot bool) []string {
		out := values[:0]
		for _, v := range values {
			v = strings.TrimSpace(v)
			if trimDot {
				v = strings.TrimPrefix(v, ".")
			}
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	p.FileExtensionsEnc = clean(p.FileExtensionsEnc, true)
	p.FileExtensionsDec = clean(p.FileExtensionsDec, true)
	p.FileNamesEnc = clean(p.FileNamesEnc, false)
	p.FileNamesDec = clean(p.FileNamesDec, false)
	p.Exclude = clean(p.Exclude, false)
}

// IgnorePatterns returns the ignore-file patterns for the plaintext files
// of the encrypt role: "*.ext" per extension plus every exact name,
// sorted and without duplicates.
func (p *PatternSet) IgnorePatterns() []string {
	seen := make(map[string]bool)
	var patterns []string
	add := func(pattern string) {
		if !seen[pattern] {
			seen[pattern] = true
			patterns = append(patterns, pattern)
		}
	}
	for _, ext := range p.FileExtensionsEnc {
		add("*." + ext)
	}
	for _, name := range p.FileNamesEnc {
		add(name)
	}
	sort.Strings(patterns)
	return patterns
}
