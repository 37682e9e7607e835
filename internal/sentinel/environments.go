package sentinel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cgerrors "github.com/PolarWolf314/confguard/internal/errors"
)

// Environments are the environment files every sentinel carries.
var Environments = []string{"local", "test", "int", "prod"}

// EnvironmentContent is the initial content of an environment file.
func EnvironmentContent(name string) string {
	return fmt.Sprintf("export RUN_ENV=%q\n", name)
}

// EnvReport lists what EnsureEnvironments did. Edited holds files that
// already existed and no longer have their initial content; they are kept
// as they are.
type EnvReport struct {
	Created []string
	Kept    []string
	Edited  []string
}

// EnsureEnvironments creates the missing environment files below
// sentinelDir. Existing files are never written.
func EnsureEnvironments(sentinelDir string) (EnvReport, error) {
	var report EnvReport

	dir := filepath.Join(sentinelDir, EnvironmentsDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return report, cgerrors.IO("mkdir", dir, err)
	}

	for _, name := range Environments {
		path := filepath.Join(dir, name+".env")
		want := EnvironmentContent(name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(want)
			cerr := f.Close()
			if werr != nil {
				return report, cgerrors.IO("write", path, werr)
			}
			if cerr != nil {
				return report, cgerrors.IO("close", path, cerr)
			}
			report.Created = append(report.Created, path)
			continue
		}
		if !errors.Is(err, fs.ErrExist) {
			return report, cgerrors.IO("create", path, err)
		}

		report.Kept = append(report.Kept, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return report, cgerrors.IO("read", path, err)
		}
		if string(data) != want {
			report.Edited = append(report.Edited, path)
		}
	}
	return report, nil
}
