package sops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
)

const (
	IgnoreStartMarker = "# ---------------------------------- confguard-start -----------------------------------"
	IgnoreEndMarker   = "# ---------------------------------- confguard-end -----------------------------------"

	ignoreTag        = "  # sops-managed "
	ignoreTimeLayout = "2006-01-02 15:04:05"
)

// Gitignore maintains the confguard block of one ignore file.
type Gitignore struct {
	Path string

	// Now stamps newly added patterns. Defaults to time.Now.
	Now func() time.Time
}

func NewGitignore(path string) *Gitignore {
	return &Gitignore{Path: path, Now: time.Now}
}

// Sync makes the block list exactly patterns, sorted and without
// duplicates. Patterns already in the block keep their timestamp. The
// file is only rewritten when its content changes; changed reports
// whether it was.
func (g *Gitignore) Sync(patterns []string) (changed bool, err error) {
	content, err := g.read()
	if err != nil {
		return false, err
	}
	start, end, found, err := ignoreBlock(content)
	if err != nil {
		return false, fmt.Errorf("%s: %w", g.Path, err)
	}

	stamps := map[string]string{}
	if found {
		stamps = parseIgnoreBlock(content[start:end])
	}
	block := g.renderBlock(dedupSorted(patterns), stamps)

	var updated string
	switch {
	case found:
		if end == len(content) && !strings.HasSuffix(content, "\n") {
			block = strings.TrimSuffix(block, "\n")
		}
		updated = content[:start] + block + content[end:]
	case content == "":
		updated = block
	default:
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		updated = content + "\n" + block
	}

	if found && updated == content {
		return false, nil
	}
	if err := g.write(updated); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops the block and the blank line written before it. A file
// without a block is left alone.
func (g *Gitignore) Remove() (bool, error) {
	content, err := g.read()
	if err != nil {
		return false, err
	}
	start, end, found, err := ignoreBlock(content)
	if err != nil {
		return false, fmt.Errorf("%s: %w", g.Path, err)
	}
	if !found {
		return false, nil
	}

	head, tail := content[:start], content[end:]
	if tail == "" && strings.HasSuffix(head, "\n\n") {
		head = head[:len(head)-1]
	}
	if err := g.write(head + tail); err != nil {
		return false, err
	}
	return true, nil
}

// Patterns returns the patterns currently in the block.
func (g *Gitignore) Patterns() ([]string, error) {
	content, err := g.read()
	if err != nil {
		return nil, err
	}
	start, end, found, err := ignoreBlock(content)
	if err != nil || !found {
		return nil, err
	}
	var patterns []string
	for pattern := range parseIgnoreBlock(content[start:end]) {
		patterns = append(patterns, pattern)
	}
	return dedupSorted(patterns), nil
}

func (g *Gitignore) read() (string, error) {
	data, err := os.ReadFile(g.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", cgerrors.IO("read", g.Path, err)
	}
	return string(data), nil
}

// write replaces the ignore file. When it is a link the file it points at
// is replaced, so the link survives.
func (g *Gitignore) write(content string) error {
	path := g.Path
	if resolved, err := filepath.EvalSymlinks(g.Path); err == nil {
		path = resolved
	}
	return pathutil.WriteFileAtomic(path, []byte(content), pathutil.FileMode(path, 0644))
}

func (g *Gitignore) renderBlock(patterns []string, stamps map[string]string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	fresh := now().UTC().Format(ignoreTimeLayout)

	var b strings.Builder
	b.WriteString(IgnoreStartMarker + "\n")
	for _, p := range patterns {
		stamp := stamps[p]
		if stamp == "" {
			stamp = fresh
		}
		b.WriteString(p + ignoreTag + stamp + "\n")
	}
	b.WriteString(IgnoreEndMarker + "\n")
	return b.String()
}

// ignoreBlock returns the byte range from the start marker line to just
// past the end marker line.
func ignoreBlock(content string) (start, end int, found bool, err error) {
	offset := 0
	start = -1
	for offset < len(content) {
		next := strings.IndexByte(content[offset:], '\n')
		lineEnd := len(content)
		if next >= 0 {
			lineEnd = offset + next + 1
		}
		line := strings.TrimRight(content[offset:lineEnd], "\r\n")

		switch {
		case line == IgnoreStartMarker && start < 0:
			start = offset
		case line == IgnoreStartMarker:
			return 0, 0, false, errors.New("confguard block opened twice")
		case line == IgnoreEndMarker && start < 0:
			return 0, 0, false, errors.New("confguard block end marker without start marker")
		case line == IgnoreEndMarker:
			return start, lineEnd, true, nil
		}
		offset = lineEnd
	}
	if start >= 0 {
		return 0, 0, false, errors.New("confguard block is not terminated")
	}
	return 0, 0, false, nil
}

// parseIgnoreBlock maps each pattern line of block to its timestamp.
func parseIgnoreBlock(block string) map[string]string {
	stamps := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line == IgnoreStartMarker || line == IgnoreEndMarker {
			continue
		}
		pattern, stamp, ok := strings.Cut(line, ignoreTag)
		if !ok {
			pattern, stamp = strings.TrimSpace(line), ""
		}
		if pattern != "" {
			stamps[pattern] = stamp
		}
	}
	return stamps
}

func dedupSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
