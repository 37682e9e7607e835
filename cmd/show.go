package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PolarWolf314/confguard/internal/configs"
	"github.com/PolarWolf314/confguard/internal/guard"
	"github.com/PolarWolf314/confguard/internal/section"
	"github.com/PolarWolf314/confguard/internal/ui"
	"github.com/PolarWolf314/confguard/internal/utils"
	"github.com/PolarWolf314/confguard/internal/workflows"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showYAML bool

func init() {
	showCmd.Flags().BoolVar(&showYAML, "yaml", false, "output as YAML")
}

// resetShowCommandState resets the show command's global state for testing.
func resetShowCommandState() {
	showYAML = false
}

// showView is the YAML form of a project's guard state.
type showView struct {
	Project      string       `yaml:"project"`
	State        string       `yaml:"state"`
	Entry        string       `yaml:"entry"`
	Link         string       `yaml:"link,omitempty"`
	Target       string       `yaml:"target,omitempty"`
	Reason       string       `yaml:"reason,omitempty"`
	Section      *sectionView `yaml:"section,omitempty"`
	SentinelDir  string       `yaml:"sentinel_dir,omitempty"`
	Environments []string     `yaml:"environments,omitempty"`
}

type sectionView struct {
	Relative  bool   `yaml:"relative"`
	Version   int    `yaml:"version"`
	Sentinel  string `yaml:"sentinel"`
	Timestamp string `yaml:"timestamp"`
	SourceDir string `yaml:"source_dir"`
}

func newShowView(result *workflows.ShowResult) showView {
	st := result.Status
	view := showView{
		Project:      st.ProjectDir,
		State:        st.State.String(),
		Entry:        st.Entry.String(),
		Link:         st.LinkValue,
		Target:       st.Target,
		SentinelDir:  result.SentinelDir,
		Environments: result.Environments,
	}
	if st.Reason != nil {
		view.Reason = st.Reason.Error()
	}
	if st.Section != nil {
		view.Section = &sectionView{
			Relative:  st.Section.Relative,
			Version:   st.Section.Version,
			Sentinel:  st.Section.Sentinel,
			Timestamp: st.Section.Timestamp.Format(section.TimestampLayout),
			SourceDir: st.Section.SourceDir,
		}
	}
	return view
}

var showCmd = &cobra.Command{
	Use:   "show [DIR]",
	Short: "Show the guard state of a project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting show command")

		dir, err := projectDirArg(args)
		if err != nil {
			return err
		}

		result, err := workflows.Show(context.Background(), workflows.ShowOptions{
			Env:        env,
			ProjectDir: dir,
		})
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), formatError(err))
			return reportedError{err: err}
		}

		view := newShowView(result)
		if showYAML {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(view); err != nil {
				return fmt.Errorf("failed to encode YAML: %w", err)
			}
			return enc.Close()
		}

		printShow(cmd.OutOrStdout(), view)
		return nil
	},
}

func printShow(w io.Writer, v showView) {
	state := ui.Success.Sprint(v.State)
	switch v.State {
	case guard.Broken.String():
		state = ui.Error.Sprint(v.State)
	case guard.Unguarded.String():
		state = ui.Warning.Sprint(v.State)
	}

	fmt.Fprintf(w, "Project: %s\n", ui.Path.Sprint(v.Project))
	fmt.Fprintf(w, "State:   %s\n", state)
	fmt.Fprintf(w, "Entry:   %s\n", v.Entry)
	if v.Link != "" {
		fmt.Fprintf(w, "Link:    %s\n", ui.LinkArrow(v.Link, v.Target))
	}
	if v.Reason != "" {
		fmt.Fprintf(w, "Reason:  %s\n", v.Reason)
	}
	if s := v.Section; s != nil {
		fmt.Fprintln(w, "Section:")
		fmt.Fprintf(w, "  Sentinel:   %s\n", ui.Highlight.Sprint(s.Sentinel))
		fmt.Fprintf(w, "  Source dir: %s\n", ui.Path.Sprint(s.SourceDir))
		fmt.Fprintf(w, "  Guarded at: %s\n", s.Timestamp)
		fmt.Fprintf(w, "  Relative:   %t\n", s.Relative)
		fmt.Fprintf(w, "  Version:    %d\n", s.Version)
	}
	if v.SentinelDir != "" {
		fmt.Fprintf(w, "Sentinel directory: %s\n", ui.Path.Sprint(v.SentinelDir))
	}
	if len(v.Environments) > 0 {
		fmt.Fprint(w, "Environment files:"+utils.FormatPaths(v.Environments))
	}
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration details and the guarded projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting info command")

		result, err := workflows.Info(context.Background(), workflows.InfoOptions{Env: env})
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), formatError(err))
			return reportedError{err: err}
		}

		w := cmd.OutOrStdout()
		if utils.IsStdoutTerminal() {
			fmt.Fprintln(w, figure.NewFigure("confguard", "", true).String())
		}
		printInfo(w, result)
		return nil
	},
}

func printInfo(w io.Writer, r *workflows.InfoResult) {
	s := r.Settings
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Base directory:  %s\n", ui.Path.Sprint(s.BaseDir))
	fmt.Fprintf(w, "  Guarded storage: %s\n", ui.Path.Sprint(s.GuardedDir))
	fmt.Fprintf(w, "  Section version: %d\n", section.CurrentVersion)
	if r.ConfigSize >= 0 {
		fmt.Fprintf(w, "  Config file:     %s (%d bytes)\n", ui.Path.Sprint(s.ConfigFile), r.ConfigSize)
	} else {
		fmt.Fprintf(w, "  Config file:     %s %s\n", ui.Path.Sprint(s.ConfigFile), ui.Muted.Sprint("not found"))
	}
	fmt.Fprintf(w, "  Audit log:       %s\n", ui.Path.Sprint(s.AuditFile))
	fmt.Fprintln(w)

	switch {
	case r.PatternErr != nil:
		fmt.Fprintf(w, "Encryption:\n  %s %v\n\n", ui.Error.Sprint("✗"), r.PatternErr)
	case r.Patterns != nil:
		p := r.Patterns
		key := p.GPGKey
		if key == "" {
			key = ui.Muted.Sprint("not set")
		}
		fmt.Fprintln(w, "Encryption:")
		fmt.Fprintf(w, "  GPG key:             %s\n", key)
		fmt.Fprintf(w, "  Encrypt extensions:  %s\n", strings.Join(p.FileExtensionsEnc, ", "))
		fmt.Fprintf(w, "  Encrypt file names:  %s\n", strings.Join(p.FileNamesEnc, ", "))
		fmt.Fprintf(w, "  Decrypt extensions:  %s\n", strings.Join(p.FileExtensionsDec, ", "))
		fmt.Fprintf(w, "  Decrypt file names:  %s\n", strings.Join(p.FileNamesDec, ", "))
		if len(p.Exclude) > 0 {
			fmt.Fprintf(w, "  Exclude:             %s\n", strings.Join(p.Exclude, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment:")
	if r.BaseDirEnv != "" {
		fmt.Fprintf(w, "  %s: %s\n", configs.BaseDirEnv, r.BaseDirEnv)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", configs.BaseDirEnv, ui.Muted.Sprint("not set"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Guarded projects: %d\n", len(r.Sentinels))
	for _, e := range r.Sentinels {
		if e.Section == nil {
			fmt.Fprintf(w, "  %s %s\n", ui.Highlight.Sprint(e.ID), ui.Muted.Sprint(e.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", ui.Highlight.Sprint(e.ID), ui.Path.Sprint(e.Section.SourceDir))
	}
}
