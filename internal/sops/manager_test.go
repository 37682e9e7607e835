package sops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PolarWolf314/confguard/internal/configs"
	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
	logger "github.com/PolarWolf314/confguard/internal/logging"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

// fakeRunner stands in for sops. It writes "ENC:" or "DEC:" plus the
// input content to the output path, unless the input's base name is in
// fail.
type fakeRunner struct {
	fail       map[string]bool
	skipOutput bool
	delay      time.Duration

	mu     sync.Mutex
	calls  [][]string
	active atomic.Int32
	peak   atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{binary}, args...))
	f.mu.Unlock()

	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	input, output := args[len(args)-1], args[len(args)-2]
	if f.fail[filepath.Base(input)] {
		return []byte("sops: could not find key\n"), exitError{code: 128}
	}
	if f.skipOutput {
		return nil, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return []byte(err.Error()), exitError{code: 1}
	}
	prefix := "ENC:"
	if args[0] == "-d" {
		prefix = "DEC:"
	}
	return nil, os.WriteFile(output, append([]byte(prefix), data...), 0600)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testPatterns() configs.PatternSet {
	return configs.PatternSet{
		GPGKey:            "60A4127E82E218297532FAB6D750B66AE08F3B90",
		FileExtensionsEnc: []string{"env", "p12"},
		FileNamesEnc:      []string{"dot.envrc"},
		FileExtensionsDec: []string{"enc"},
	}
}

func newTestManager(runner Runner, patterns configs.PatternSet, ignore *Gitignore) *Manager {
	return NewManager(ManagerOptions{
		Patterns: patterns,
		Runner:   runner,
		Ignore:   ignore,
		Logger:   logger.Logger{Quiet: true},
	})
}

func TestEncryptBatch_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env"), "A=1\n")
	writeTestFile(t, filepath.Join(dir, "b.p12"), "binary")
	runner := &fakeRunner{fail: map[string]bool{"b.p12": true}}
	ignore := &Gitignore{Path: filepath.Join(dir, ".gitignore"), Now: steppingClock()}
	m := newTestManager(runner, configs.PatternSet{
		GPGKey:            "KEY",
		FileExtensionsEnc: []string{"env", "p12"},
	}, ignore)

	files, err := m.CollectFiles(dir, RoleEncrypt)
	if err != nil {
		t.Fatalf("CollectFiles failed: %v", err)
	}
	result, err := m.EncryptBatch(context.Background(), files)

	if !errors.Is(err, cgerrors.ErrPartialBatchFailure) {
		t.Fatalf("Expected ErrPartialBatchFailure, got: %v", err)
	}
	var batchErr *cgerrors.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("Expected *BatchError, got: %T", err)
	}
	if batchErr.Succeeded != 1 || batchErr.Failed != 1 {
		t.Errorf("Expected 1 success and 1 failure, got %d/%d", batchErr.Succeeded, batchErr.Failed)
	}
	if len(batchErr.Failures) != 1 || filepath.Base(batchErr.Failures[0].Path) != "b.p12" {
		t.Errorf("Expected failure naming b.p12, got: %+v", batchErr.Failures)
	}
	var subErr *cgerrors.SubprocessError
	if !errors.As(batchErr.Failures[0].Err, &subErr) || subErr.ExitCode != 128 {
		t.Errorf("Expected subprocess error with exit code 128, got: %v", batchErr.Failures[0].Err)
	} else if !strings.Contains(subErr.Stderr, "could not find key") {
		t.Errorf("Expected captured stderr, got: %q", subErr.Stderr)
	}

	if got := readTestFile(t, filepath.Join(dir, "a.env.enc")); got != "ENC:A=1\n" {
		t.Errorf("Unexpected a.env.enc content: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.p12.enc")); !os.IsNotExist(err) {
		t.Errorf("Expected no b.p12.enc, got: %v", err)
	}
	if len(result.Succeeded()) != 1 {
		t.Errorf("Expected one success in result, got: %v", result.Succeeded())
	}

	if got := readTestFile(t, ignore.Path); !strings.Contains(got, "*.env  # sops-managed") || !strings.Contains(got, "*.p12  # sops-managed") {
		t.Errorf("Expected ignore file to list the patterns:\n%s", got)
	}
}

func TestEncryptBatch_AllFailed(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env"), "A=1\n")
	ignore := &Gitignore{Path: filepath.Join(dir, ".gitignore")}
	m := newTestManager(&fakeRunner{fail: map[string]bool{"a.env": true}}, testPatterns(), ignore)

	_, err := m.EncryptBatch(context.Background(), []string{filepath.Join(dir, "a.env")})
	if !errors.Is(err, cgerrors.ErrBatchFailed) {
		t.Errorf("Expected ErrBatchFailed, got: %v", err)
	}
	if errors.Is(err, cgerrors.ErrPartialBatchFailure) {
		t.Errorf("Total failure must not be reported as partial")
	}
	if _, err := os.Stat(ignore.Path); !os.IsNotExist(err) {
		t.Errorf("Expected ignore file to stay untouched, got: %v", err)
	}
}

func TestEncryptBatch_MissingKey(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env"), "A=1\n")
	runner := &fakeRunner{}
	patterns := testPatterns()
	patterns.GPGKey = ""
	m := newTestManager(runner, patterns, nil)

	result, err := m.EncryptBatch(context.Background(), []string{filepath.Join(dir, "a.env")})
	if !errors.Is(err, cgerrors.ErrBatchFailed) {
		t.Errorf("Expected ErrBatchFailed, got: %v", err)
	}
	if !errors.Is(result.Outcomes[0].Err, cgerrors.ErrMissingKey) {
		t.Errorf("Expected ErrMissingKey, got: %v", result.Outcomes[0].Err)
	}
	if runner.callCount() != 0 {
		t.Errorf("Expected the tool not to run, got %d calls", runner.callCount())
	}
}

func TestEncryptBatch_MissingOutput(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env"), "A=1\n")
	m := newTestManager(&fakeRunner{skipOutput: true}, testPatterns(), nil)

	result, err := m.EncryptBatch(context.Background(), []string{filepath.Join(dir, "a.env")})
	if !errors.Is(err, cgerrors.ErrBatchFailed) {
		t.Errorf("Expected ErrBatchFailed, got: %v", err)
	}
	if !errors.Is(result.Outcomes[0].Err, cgerrors.ErrSubprocessFailure) {
		t.Errorf("Expected ErrSubprocessFailure, got: %v", result.Outcomes[0].Err)
	}
}

func TestEncryptBatch_BoundedConcurrency(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 3*MaxWorkers; i++ {
		path := filepath.Join(dir, fmt.Sprintf("f%02d.env", i))
		writeTestFile(t, path, "X=1\n")
		files = append(files, path)
	}
	runner := &fakeRunner{delay: 5 * time.Millisecond}
	m := newTestManager(runner, testPatterns(), nil)

	result, err := m.EncryptBatch(context.Background(), files)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Outcomes) != len(files) {
		t.Fatalf("Expected %d outcomes, got %d", len(files), len(result.Outcomes))
	}
	for i, o := range result.Outcomes {
		if o.Path != files[i] {
			t.Errorf("Outcome %d is for %s, want %s", i, o.Path, files[i])
		}
	}
	if peak := runner.peak.Load(); peak > MaxWorkers {
		t.Errorf("Expected at most %d concurrent invocations, saw %d", MaxWorkers, peak)
	}
}

func TestEncryptBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env"), "A=1\n")
	runner := &fakeRunner{}
	m := newTestManager(runner, testPatterns(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := m.EncryptBatch(ctx, []string{filepath.Join(dir, "a.env")})
	if !errors.Is(err, cgerrors.ErrBatchFailed) {
		t.Errorf("Expected ErrBatchFailed, got: %v", err)
	}
	if !errors.Is(result.Outcomes[0].Err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", result.Outcomes[0].Err)
	}
	if runner.callCount() != 0 {
		t.Errorf("Expected no invocations after cancellation")
	}
}

func TestDecryptBatch(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env.enc"), "secret")
	writeTestFile(t, filepath.Join(dir, "dot.envrc.enc"), "secret")
	runner := &fakeRunner{}
	m := newTestManager(runner, testPatterns(), nil)

	files, err := m.CollectFiles(dir, RoleDecrypt)
	if err != nil {
		t.Fatalf("CollectFiles failed: %v", err)
	}
	if _, err := m.DecryptBatch(context.Background(), files); err != nil {
		t.Fatalf("DecryptBatch failed: %v", err)
	}

	if got := readTestFile(t, filepath.Join(dir, "a.env")); got != "DEC:secret" {
		t.Errorf("Unexpected a.env content: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "dot.envrc")); err != nil {
		t.Errorf("Expected dot.envrc to be written: %v", err)
	}

	for _, call := range runner.calls {
		dotenv := strings.Contains(strings.Join(call, " "), "--input-type dotenv --output-type dotenv")
		wantDotenv := strings.HasSuffix(call[len(call)-1], "a.env.enc")
		if dotenv != wantDotenv {
			t.Errorf("Unexpected dotenv flags in %v", call)
		}
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.env",
		"a.env.enc",
		"dot.envrc",
		"notes.txt",
		"nested/deep/b.p12",
		".git/config.env",
		"vendor/lib.env",
	} {
		writeTestFile(t, filepath.Join(dir, name), "x")
	}
	outside := filepath.Join(t.TempDir(), "outside.env")
	writeTestFile(t, outside, "x")
	if err := os.Symlink(outside, filepath.Join(dir, "linked.env")); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	patterns := testPatterns()
	patterns.Exclude = []string{"vendor/**"}
	m := newTestManager(&fakeRunner{}, patterns, nil)

	got, err := m.CollectFiles(dir, RoleEncrypt)
	if err != nil {
		t.Fatalf("CollectFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.env"),
		filepath.Join(dir, "dot.envrc"),
		filepath.Join(dir, "nested", "deep", "b.p12"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encrypt role: expected %v, got %v", want, got)
	}

	got, err = m.CollectFiles(dir, RoleDecrypt)
	if err != nil {
		t.Fatalf("CollectFiles failed: %v", err)
	}
	if want := []string{filepath.Join(dir, "a.env.enc")}; !reflect.DeepEqual(got, want) {
		t.Errorf("Decrypt role: expected %v, got %v", want, got)
	}
}

func TestCollectFiles_SymlinkedRoot(t *testing.T) {
	parent := t.TempDir()
	storeDir := filepath.Join(parent, "real")
	writeTestFile(t, filepath.Join(storeDir, "a.env"), "A=1\n")
	writeTestFile(t, filepath.Join(storeDir, "nested", "b.p12"), "x")
	outside := filepath.Join(t.TempDir(), "outside.env")
	writeTestFile(t, outside, "x")
	if err := os.Symlink(outside, filepath.Join(storeDir, "linked.env")); err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	base := filepath.Join(parent, "base")
	if err := os.Symlink(storeDir, base); err != nil {
		t.Fatalf("Failed to link scan root: %v", err)
	}
	m := newTestManager(&fakeRunner{}, testPatterns(), nil)

	got, err := m.CollectFiles(base, RoleEncrypt)
	if err != nil {
		t.Fatalf("CollectFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(base, "a.env"),
		filepath.Join(base, "nested", "b.p12"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	result, err := m.CleanPlaintext(context.Background(), base)
	if err != nil {
		t.Fatalf("CleanPlaintext failed: %v", err)
	}
	if len(result.Skipped) != 2 {
		t.Errorf("Expected both plaintext files to be seen and skipped, got %+v", result)
	}
}

func TestCollectFiles_MissingRoot(t *testing.T) {
	m := newTestManager(&fakeRunner{}, testPatterns(), nil)

	_, err := m.CollectFiles(filepath.Join(t.TempDir(), "missing"), RoleEncrypt)
	if !errors.Is(err, cgerrors.ErrIOFailure) {
		t.Errorf("Expected ErrIOFailure for a missing root, got: %v", err)
	}
}

func TestCollectFiles_InvalidExclude(t *testing.T) {
	patterns := testPatterns()
	patterns.Exclude = []string{"[unclosed"}
	m := newTestManager(&fakeRunner{}, patterns, nil)

	if _, err := m.CollectFiles(t.TempDir(), RoleEncrypt); err == nil {
		t.Errorf("Expected invalid exclude pattern to fail")
	}
}

func TestCleanPlaintext(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.env"), "A=1\n")
	writeTestFile(t, filepath.Join(dir, "a.env.enc"), "ENC")
	writeTestFile(t, filepath.Join(dir, "b.env"), "B=1\n")
	writeTestFile(t, filepath.Join(dir, "b.env.enc"), "")
	writeTestFile(t, filepath.Join(dir, "c.env"), "C=1\n")
	m := newTestManager(&fakeRunner{}, testPatterns(), nil)

	result, err := m.CleanPlaintext(context.Background(), dir)
	if err != nil {
		t.Fatalf("CleanPlaintext failed: %v", err)
	}

	if want := []string{filepath.Join(dir, "a.env")}; !reflect.DeepEqual(result.Removed, want) {
		t.Errorf("Expected removed %v, got %v", want, result.Removed)
	}
	if want := []string{filepath.Join(dir, "b.env"), filepath.Join(dir, "c.env")}; !reflect.DeepEqual(result.Skipped, want) {
		t.Errorf("Expected skipped %v, got %v", want, result.Skipped)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.env")); !os.IsNotExist(err) {
		t.Errorf("Expected a.env to be removed")
	}
	for _, kept := range []string{"b.env", "c.env", "a.env.enc"} {
		if _, err := os.Stat(filepath.Join(dir, kept)); err != nil {
			t.Errorf("Expected %s to be kept: %v", kept, err)
		}
	}
}

func TestCryptoArgs(t *testing.T) {
	if got := EncryptArgs("KEY", "a.env", "a.env.enc"); !reflect.DeepEqual(got,
		[]string{"-e", "--pgp", "KEY", "--output", "a.env.enc", "a.env"}) {
		t.Errorf("Unexpected encrypt args: %v", got)
	}
	if got := DecryptArgs("KEY", "a.p12.enc", "a.p12"); !reflect.DeepEqual(got,
		[]string{"-d", "--pgp", "KEY", "--output", "a.p12", "a.p12.enc"}) {
		t.Errorf("Unexpected decrypt args: %v", got)
	}
	if got := DecryptedPath("dir/dot.envrc.enc"); got != "dir/dot.envrc" {
		t.Errorf("Unexpected decrypted path: %s", got)
	}
}
