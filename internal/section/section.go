package section

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	"github.com/PolarWolf314/confguard/internal/pathutil"
)

const (
	StartMarker = "#------------------------------- confguard start --------------------------------"
	EndMarker   = "#-------------------------------- confguard end ---------------------------------"

	// CurrentVersion is the format written by Render. Older sections are
	// read with defaults and upgraded on the next write.
	CurrentVersion = 3

	// TimestampLayout is RFC 3339 with millisecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

const (
	keyRelative  = "config.relative"
	keyVersion   = "config.version"
	keySentinel  = "state.sentinel"
	keyTimestamp = "state.timestamp"
	keySourceDir = "state.sourceDir"
	keyPadded    = "state.padded"
)

// Field is a key/value line the codec does not interpret. Value is kept
// exactly as written.
type Field struct {
	Key   string
	Value string
}

// Section is the parsed form of a guard section.
type Section struct {
	Relative  bool
	Version   int
	Sentinel  string
	Timestamp time.Time

	// SourceDir is the absolute project directory. It is stored
	// $HOME-relative when it lies below the home directory.
	SourceDir string

	// Padded records that a newline was inserted before the section
	// because the original content did not end with one.
	Padded bool

	Extra []Field
}

// Has reports whether content contains a start marker line.
func Has(content string) bool {
	_, ok := markerLine(content, StartMarker, 0)
	return ok
}

// span returns the byte range of the section, from the start of the start
// marker line to just past the end marker line and its newline.
func span(content string) (start, end int, found bool, err error) {
	start, ok := markerLine(content, StartMarker, 0)
	if !ok {
		if _, dangling := markerLine(content, EndMarker, 0); dangling {
			return 0, 0, false, fmt.Errorf("%w: end marker without start marker", cgerrors.ErrCorruptGuardSection)
		}
		return 0, 0, false, nil
	}

	endLine, ok := markerLine(content, EndMarker, start)
	if !ok {
		return 0, 0, false, fmt.Errorf("%w: start marker without end marker", cgerrors.ErrCorruptGuardSection)
	}
	if _, again := markerLine(content, StartMarker, start+len(StartMarker)); again {
		return 0, 0, false, fmt.Errorf("%w: more than one section", cgerrors.ErrCorruptGuardSection)
	}

	end = endLine + len(EndMarker)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return start, end, true, nil
}

// markerLine finds a line equal to marker at or after offset from and
// returns the offset of the line start.
func markerLine(content, marker string, from int) (int, bool) {
	for from <= len(content) {
		i := strings.Index(content[from:], marker)
		if i < 0 {
			return 0, false
		}
		pos := from + i
		after := pos + len(marker)
		atLineStart := pos == 0 || content[pos-1] == '\n'
		atLineEnd := after == len(content) || content[after] == '\n' || content[after] == '\r'
		if atLineStart && atLineEnd {
			return pos, true
		}
		from = after
	}
	return 0, false
}

// Parse extracts the guard section from content. A missing section, a
// missing sentinel or source directory, or an unreadable value fails with
// ErrCorruptGuardSection.
func Parse(content string) (*Section, error) {
	start, end, found, err := span(content)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no guard section", cgerrors.ErrCorruptGuardSection)
	}

	s := &Section{Relative: true, Version: 1}
	var haveSentinel, haveSource bool

	body := content[start:end]
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := fieldLine(line)
		if !ok {
			continue
		}

		switch key {
		case keyRelative:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, corruptValue(key, value)
			}
			s.Relative = b
		case keyVersion:
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, corruptValue(key, value)
			}
			s.Version = v
		case keySentinel:
			v, ok := unquote(value)
			if !ok || v == "" {
				return nil, corruptValue(key, value)
			}
			s.Sentinel = v
			haveSentinel = true
		case keyTimestamp:
			v, ok := unquote(value)
			if !ok {
				return nil, corruptValue(key, value)
			}
			ts, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, corruptValue(key, value)
			}
			s.Timestamp = ts
		case keySourceDir:
			v, ok := unquote(value)
			if !ok || v == "" {
				return nil, corruptValue(key, value)
			}
			dir, err := pathutil.FromHomeBased(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", cgerrors.ErrCorruptGuardSection, err)
			}
			s.SourceDir = dir
			haveSource = true
		case keyPadded:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, corruptValue(key, value)
			}
			s.Padded = b
		default:
			s.Extra = append(s.Extra, Field{Key: key, Value: value})
		}
	}

	if s.Version < 1 || s.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %w: version %d, supported up to %d",
			cgerrors.ErrCorruptGuardSection, cgerrors.ErrUnsupportedSectionVersion, s.Version, CurrentVersion)
	}
	if !haveSentinel {
		return nil, fmt.Errorf("%w: %s is missing", cgerrors.ErrCorruptGuardSection, keySentinel)
	}
	if !haveSource {
		return nil, fmt.Errorf("%w: %s is missing", cgerrors.ErrCorruptGuardSection, keySourceDir)
	}
	return s, nil
}

func corruptValue(key, value string) error {
	return fmt.Errorf("%w: invalid value for %s: %s", cgerrors.ErrCorruptGuardSection, key, value)
}

// fieldLine splits "# key = value" into its parts.
func fieldLine(line string) (key, value string, ok bool) {
	line = strings.TrimSuffix(line, "\r")
	rest, ok := strings.CutPrefix(line, "# ")
	if !ok {
		return "", "", false
	}
	key, value, ok = strings.Cut(rest, " = ")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func unquote(value string) (string, bool) {
	if len(value) < 2 {
		return "", false
	}
	first, last := value[0], value[len(value)-1]
	if first != last || (first != '\'' && first != '"') {
		return "", false
	}
	return value[1 : len(value)-1], true
}

// Render returns the section as text, terminated by a newline. The
// version is always written as CurrentVersion. sentinelDir is the absolute
// sentinel directory the export line points at.
func Render(s Section, sentinelDir string) (string, error) {
	if s.Sentinel == "" {
		return "", fmt.Errorf("rendering guard section: sentinel id is empty")
	}
	source, err := pathutil.ToHomeBased(s.SourceDir)
	if err != nil {
		return "", fmt.Errorf("rendering guard section: %w", err)
	}
	sopsPath, err := pathutil.ToHomeBased(sentinelDir)
	if err != nil {
		return "", fmt.Errorf("rendering guard section: %w", err)
	}

	var b strings.Builder
	b.WriteString(StartMarker + "\n")
	fmt.Fprintf(&b, "# %s = %t\n", keyRelative, s.Relative)
	fmt.Fprintf(&b, "# %s = %d\n", keyVersion, CurrentVersion)
	fmt.Fprintf(&b, "# %s = '%s'\n", keySentinel, s.Sentinel)
	fmt.Fprintf(&b, "# %s = '%s'\n", keyTimestamp, s.Timestamp.UTC().Format(TimestampLayout))
	fmt.Fprintf(&b, "# %s = '%s'\n", keySourceDir, source)
	if s.Padded {
		fmt.Fprintf(&b, "# %s = true\n", keyPadded)
	}
	for _, f := range s.Extra {
		fmt.Fprintf(&b, "# %s = %s\n", f.Key, f.Value)
	}
	fmt.Fprintf(&b, "export SOPS_PATH=%s\n", sopsPath)
	b.WriteString("dotenv $SOPS_PATH/environments/local.env\n")
	b.WriteString(EndMarker + "\n")
	return b.String(), nil
}

// Upsert writes s into content. An existing section is replaced in place
// and keeps its padding flag and unknown fields unless s carries its own.
// Otherwise the section is appended, after a newline when content does not
// already end with one.
func Upsert(content string, s Section, sentinelDir string) (string, error) {
	start, end, found, err := span(content)
	if err != nil {
		return "", err
	}

	if found {
		if old, err := Parse(content); err == nil {
			s.Padded = old.Padded
			if s.Extra == nil {
				s.Extra = old.Extra
			}
		}
		block, err := Render(s, sentinelDir)
		if err != nil {
			return "", err
		}
		if end == len(content) && !strings.HasSuffix(content[start:end], "\n") {
			block = strings.TrimSuffix(block, "\n")
		}
		return content[:start] + block + content[end:], nil
	}

	s.Padded = content != "" && !strings.HasSuffix(content, "\n")
	block, err := Render(s, sentinelDir)
	if err != nil {
		return "", err
	}
	if s.Padded {
		return content + "\n" + block, nil
	}
	return content + block, nil
}

// Strip removes the section from content. Content without a section is
// returned unchanged.
func Strip(content string) (string, error) {
	start, end, found, err := span(content)
	if err != nil {
		return "", err
	}
	if !found {
		return content, nil
	}

	padded := false
	if s, err := Parse(content); err == nil {
		padded = s.Padded
	}

	head := content[:start]
	tail := content[end:]
	if padded && tail == "" {
		head = strings.TrimSuffix(head, "\n")
	}
	return head + tail, nil
}
