package sops

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the executable invoked when no other is configured.
const DefaultBinary = "sops"

// EncryptedSuffix is appended to a file's name by encryption.
const EncryptedSuffix = ".enc"

// Runner runs the external tool. It returns the tool's standard error and
// a non-nil error when the tool could not be started or exited non-zero.
// Errors carrying an exit status implement ExitCode() int.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (stderr []byte, err error)
}

// ExecRunner runs the tool with os/exec. Cancelling ctx kills it.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// EncryptedPath returns the output path for encrypting input.
func EncryptedPath(input string) string {
	return input + EncryptedSuffix
}

// DecryptedPath returns input without its last extension.
func DecryptedPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// EncryptArgs returns the sops arguments that encrypt input into output.
func EncryptArgs(key, input, output string) []string {
	return []string{"-e", "--pgp", key, "--output", output, input}
}

// DecryptArgs returns the sops arguments that decrypt input into output.
// Outputs ending in .env are read and written as dotenv.
func DecryptArgs(key, input, output string) []string {
	args := []string{"-d", "--pgp", key}
	if filepath.Ext(output) == ".env" {
		args = append(args, "--input-type", "dotenv", "--output-type", "dotenv")
	}
	return append(args, "--output", output, input)
}
