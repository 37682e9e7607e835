package sops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/PolarWolf314/confguard/internal/configs"
	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	logger "github.com/PolarWolf314/confguard/internal/logging"
)

// MaxWorkers bounds the number of concurrent tool invocations.
const MaxWorkers = 8

// Role selects which half of the pattern set applies.
type Role int

const (
	RoleEncrypt Role = iota
	RoleDecrypt
)

func (r Role) String() string {
	if r == RoleDecrypt {
		return "decrypt"
	}
	return "encrypt"
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Patterns configs.PatternSet

	// Runner defaults to ExecRunner, Binary to DefaultBinary.
	Runner Runner
	Binary string

	// Ignore is synced after encrypt batches. Nil disables syncing.
	Ignore *Gitignore

	Logger  logger.Logger
	Workers int
}

// Manager runs encrypt, decrypt and clean batches.
type Manager struct {
	patterns configs.PatternSet
	runner   Runner
	binary   string
	ignore   *Gitignore
	log      logger.Logger
	workers  int
}

func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		patterns: opts.Patterns,
		runner:   opts.Runner,
		binary:   opts.Binary,
		ignore:   opts.Ignore,
		log:      opts.Logger,
		workers:  opts.Workers,
	}
	if m.runner == nil {
		m.runner = ExecRunner{}
	}
	if m.binary == "" {
		m.binary = DefaultBinary
	}
	if m.workers <= 0 || m.workers > MaxWorkers {
		m.workers = MaxWorkers
	}
	return m
}

// FileOutcome is the result of one file of a batch.
type FileOutcome struct {
	Path   string
	Output string
	Err    error
}

// BatchResult holds one outcome per input file, in input order.
type BatchResult struct {
	Outcomes []FileOutcome
}

func (r *BatchResult) Succeeded() []string {
	var paths []string
	for _, o := range r.Outcomes {
		if o.Err == nil {
			paths = append(paths, o.Path)
		}
	}
	return paths
}

func (r *BatchResult) Failures() []cgerrors.FileFailure {
	var failures []cgerrors.FileFailure
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failures = append(failures, cgerrors.FileFailure{Path: o.Path, Err: o.Err})
		}
	}
	return failures
}

// Err returns a *errors.BatchError when any file failed.
func (r *BatchResult) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &cgerrors.BatchError{
		Succeeded: len(r.Outcomes) - len(failures),
		Failed:    len(failures),
		Failures:  failures,
	}
}

// CollectFiles walks root and returns the files selected for role, sorted.
// A file is selected when its extension or its exact name is listed.
// Links are never followed or selected, .git directories and excluded
// paths are skipped, and files already ending in .enc are never selected
// for encryption.
func (m *Manager) CollectFiles(root string, role Role) ([]string, error) {
	extensions, names := m.patterns.FileExtensionsEnc, m.patterns.FileNamesEnc
	if role == RoleDecrypt {
		extensions, names = m.patterns.FileExtensionsDec, m.patterns.FileNamesDec
	}
	extSet := toSet(extensions)
	nameSet := toSet(names)

	for _, pattern := range m.patterns.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	// WalkDir does not descend into a root that is a link, so the walk
	// starts at the resolved root. Links below it are still not followed.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, cgerrors.IO("resolve", root, err)
	}

	var files []string
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return cgerrors.IO("walk", path, err)
		}
		if path == walkRoot {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		if m.excluded(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		case !d.Type().IsRegular():
			return nil
		}

		name := d.Name()
		if role == RoleEncrypt && strings.HasSuffix(name, EncryptedSuffix) {
			return nil
		}
		if nameSet[name] || extSet[strings.TrimPrefix(filepath.Ext(name), ".")] {
			files = append(files, filepath.Join(root, rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (m *Manager) excluded(rel string) bool {
	for _, pattern := range m.patterns.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// EncryptBatch encrypts every file to a sibling with an added .enc suffix.
// After at least one success the ignore file is synced once.
func (m *Manager) EncryptBatch(ctx context.Context, files []string) (*BatchResult, error) {
	result := m.run(ctx, files, func(ctx context.Context, input string) (string, error) {
		if strings.HasSuffix(input, EncryptedSuffix) {
			return "", fmt.Errorf("%s is already encrypted", input)
		}
		output := EncryptedPath(input)
		return output, m.invoke(ctx, input, output, EncryptArgs(m.patterns.GPGKey, input, output))
	})

	var syncErr error
	if m.ignore != nil && len(result.Succeeded()) > 0 {
		changed, err := m.ignore.Sync(m.patterns.IgnorePatterns())
		if err != nil {
			syncErr = fmt.Errorf("updating ignore file: %w", err)
		} else if changed {
			m.log.Infof("Updated ignore file %s", m.ignore.Path)
		}
	}
	return result, errors.Join(result.Err(), syncErr)
}

// DecryptBatch decrypts every file to its path without the last extension.
func (m *Manager) DecryptBatch(ctx context.Context, files []string) (*BatchResult, error) {
	result := m.run(ctx, files, func(ctx context.Context, input string) (string, error) {
		output := DecryptedPath(input)
		if output == input {
			return "", fmt.Errorf("%s has no extension to strip", input)
		}
		return output, m.invoke(ctx, input, output, DecryptArgs(m.patterns.GPGKey, input, output))
	})
	return result, result.Err()
}

// CleanResult describes a CleanPlaintext run.
type CleanResult struct {
	Removed []string

	// Skipped plaintext files have no non-empty encrypted sibling.
	Skipped []string

	Failures []cgerrors.FileFailure
}

// CleanPlaintext removes plaintext files of the encrypt role below root,
// but only those whose .enc sibling exists and is not empty.
func (m *Manager) CleanPlaintext(ctx context.Context, root string) (*CleanResult, error) {
	files, err := m.CollectFiles(root, RoleEncrypt)
	if err != nil {
		return nil, err
	}

	// Output names the encrypted copy for removed files and stays empty
	// for skipped ones.
	batch := m.run(ctx, files, func(ctx context.Context, input string) (string, error) {
		encrypted := EncryptedPath(input)
		info, err := os.Stat(encrypted)
		if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
			return "", nil
		}
		if err := os.Remove(input); err != nil {
			return "", cgerrors.IO("remove", input, err)
		}
		return encrypted, nil
	})

	result := &CleanResult{}
	for _, o := range batch.Outcomes {
		switch {
		case o.Err != nil:
			result.Failures = append(result.Failures, cgerrors.FileFailure{Path: o.Path, Err: o.Err})
		case o.Output == "":
			m.log.Infof("Keeping %s: no encrypted copy", o.Path)
			result.Skipped = append(result.Skipped, o.Path)
		default:
			result.Removed = append(result.Removed, o.Path)
		}
	}
	if len(result.Failures) > 0 {
		return result, &cgerrors.BatchError{
			Succeeded: len(result.Removed) + len(result.Skipped),
			Failed:    len(result.Failures),
			Failures:  result.Failures,
		}
	}
	return result, nil
}

// run applies fn to every file on the worker pool. Each worker writes
// only its own slot of the result.
func (m *Manager) run(ctx context.Context, files []string, fn func(context.Context, string) (string, error)) *BatchResult {
	result := &BatchResult{Outcomes: make([]FileOutcome, len(files))}

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, file := range files {
		result.Outcomes[i].Path = file
		if err := ctx.Err(); err != nil {
			result.Outcomes[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				result.Outcomes[i].Err = err
				return nil
			}
			output, err := fn(ctx, file)
			result.Outcomes[i].Output = output
			result.Outcomes[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return result
}

// invoke runs the tool once and checks that it produced output.
func (m *Manager) invoke(ctx context.Context, input, output string, args []string) error {
	if m.patterns.GPGKey == "" {
		return fmt.Errorf("%w: set gpg_key in %s", cgerrors.ErrMissingKey, configs.ConfigFileName)
	}

	m.log.Debugf("Running %s %s", m.binary, strings.Join(args, " "))
	stderr, err := m.runner.Run(ctx, m.binary, args)
	if err != nil {
		code := -1
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &cgerrors.SubprocessError{Path: input, ExitCode: code, Stderr: string(stderr), Err: err}
	}

	if _, err := os.Stat(output); err != nil {
		return &cgerrors.SubprocessError{
			Path:   input,
			Stderr: fmt.Sprintf("%s exited 0 but %s was not written", m.binary, output),
			Err:    err,
		}
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
