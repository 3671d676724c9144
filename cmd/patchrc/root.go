// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/locate"
	"github.com/walteh/patchrc/pkg/locate/python"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/operation"
	"github.com/walteh/patchrc/pkg/status"
)

const (
	exitOK        = 0
	exitPending   = 1
	exitViolation = 2
)

// errPendingChanges ends a --check run that found work to do
var errPendingChanges = errors.Base("changes pending")

// 🌱 envDefaults seeds flag defaults from the environment
type envDefaults struct {
	Root    string `env:"PATCHRC_ROOT" envDefault:"."`
	Debug   bool   `env:"PATCHRC_DEBUG"`
	Format  string `env:"PATCHRC_FORMAT"`
	NoColor string `env:"NO_COLOR"`
}

// rootOpts holds the parsed command line
type rootOpts struct {
	check         bool
	dryRun        bool
	root          string
	format        string
	decodeEscapes bool
	noColor       bool
	debug         bool
}

func (o *rootOpts) mode() string {
	switch {
	case o.check:
		return "check"
	case o.dryRun:
		return "dry-run"
	default:
		return "apply"
	}
}

// run executes the CLI and maps the outcome to an exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd, err := newRootCmd()
	if err != nil {
		fmt.Fprint(stderr, pterm.Error.Sprintln(err.Error()))
		return exitViolation
	}

	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err = cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errPendingChanges):
		return exitPending
	default:
		fmt.Fprint(stderr, pterm.Error.Sprintln(err.Error()))
		return exitViolation
	}
}

// 🏗️ newRootCmd builds the patchrc command
func newRootCmd() (*cobra.Command, error) {
	var defaults envDefaults
	if err := env.Parse(&defaults); err != nil {
		return nil, errors.Errorf("reading environment: %w", err)
	}

	o := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "patchrc <spec|->",
		Short: "Apply a deterministic patch specification to source files",
		Long: `patchrc applies an ordered list of text and structural edits to files.
Every edit is idempotent: running the same specification twice leaves
the tree unchanged the second time.

Exit codes:
  0  success, or --check found nothing to change
  1  --check found pending changes
  2  the specification could not be applied`,
		Args:          cobra.ExactArgs(1),
		Version:       FormatVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.execute(cmd, args[0])
		},
	}
	cmd.SetVersionTemplate("{{.Version}}")

	flags := cmd.Flags()
	flags.BoolVar(&o.check, "check", false, "report pending changes and exit 1 if any, writing nothing")
	flags.BoolVar(&o.dryRun, "dry-run", false, "print the diff without writing")
	flags.StringVar(&o.root, "root", defaults.Root, "directory target paths are resolved against")
	flags.StringVar(&o.format, "format", defaults.Format, "spec format: json, yaml or hcl (default: from extension, json for stdin)")
	flags.BoolVar(&o.decodeEscapes, "decode-escapes", false, `decode \n, \t and \r in text fields`)
	flags.BoolVar(&o.noColor, "no-color", defaults.NoColor != "", "disable colored output")
	flags.BoolVarP(&o.debug, "debug", "d", defaults.Debug, "enable debug logging")

	return cmd, nil
}

// 🏃 execute loads the specification, runs it and reports the result
func (o *rootOpts) execute(cmd *cobra.Command, source string) error {
	stderr := cmd.ErrOrStderr()

	if o.noColor {
		color.NoColor = true
		pterm.DisableColor()
	}

	logger := newLogger(stderr, o.debug, color.NoColor)
	ctx := logger.WithContext(cmd.Context())

	spec, err := o.loadSpec(ctx, cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	// the console already prints to stderr; mirror it to zerolog only when debugging
	mirror := zerolog.Nop()
	if o.debug {
		mirror = logger
	}
	console := log.New(stderr, mirror)
	ctx = log.NewContext(ctx, console)

	runner, err := operation.NewRunner(operation.Options{
		Check:    o.check,
		DryRun:   o.dryRun,
		Out:      cmd.OutOrStdout(),
		Files:    status.New(o.root),
		Locators: locate.NewRegistry(python.New()),
		Color:    !color.NoColor,
	})
	if err != nil {
		return errors.Errorf("creating runner: %w", err)
	}

	console.StartRun(ctx, log.RunOperation{Source: source, Mode: o.mode()})
	report, err := runner.Run(ctx, spec)
	changed := console.EndRun(ctx)
	if err != nil {
		if written := report.Written(); len(written) > 0 {
			console.Warningf("%d file(s) written before the failure keep their changes", len(written))
		}
		return err
	}

	switch {
	case o.check && report.Changed():
		console.Warningf("%d file(s) would change", changed)
		return errPendingChanges
	case changed == 0:
		console.Success("already up to date")
	case o.dryRun:
		console.Warningf("%d file(s) would change", changed)
	default:
		console.Successf("patched %d file(s)", changed)
	}
	return nil
}

// loadSpec reads the specification from a file or, for "-", from stdin
func (o *rootOpts) loadSpec(ctx context.Context, stdin io.Reader, source string) (*config.Spec, error) {
	var (
		spec *config.Spec
		err  error
	)
	if source == config.StdinMarker {
		spec, err = config.LoadReader(ctx, stdin, source, o.format)
	} else {
		spec, err = config.Load(ctx, source, o.format)
	}
	if err != nil {
		return nil, err
	}

	if o.decodeEscapes && !spec.DecodeEscapes {
		spec.DecodeEscapes = true
		spec.Normalize()
	}
	return spec, nil
}

// newLogger returns a console zerolog logger; warn level keeps stderr quiet
func newLogger(w io.Writer, debug, noColor bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
