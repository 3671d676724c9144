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

package operation

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/diff"
	"github.com/walteh/patchrc/pkg/locate"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/status"
	"github.com/walteh/patchrc/pkg/text"
)

// NoChanges is printed when a run leaves every file as it was
const NoChanges = "no changes"

// 🔧 Options configures a Runner
type Options struct {
	// Check computes diffs without writing; the caller turns changes into exit code 1
	Check bool
	// DryRun computes diffs without writing
	DryRun bool
	// Out receives the unified diffs, or the NoChanges line
	Out io.Writer
	// Files reads, expands and writes target files
	Files status.FileManager
	// Locators resolves the structural locator for upsert operations
	Locators *locate.Registry
	// Color paints diffs
	Color bool
}

// 📄 FileResult is the outcome of one FileEdit on one file
type FileResult struct {
	Path   string
	Status status.FileStatus
	Ops    int
	Stats  diff.Stats
}

// 📊 Report lists every file a run touched, in processing order
type Report struct {
	Files []FileResult
}

// Changed reports whether any file differs, or would differ, from disk
func (r *Report) Changed() bool {
	for _, f := range r.Files {
		if f.Status == status.StatusPending || f.Status == status.StatusWritten {
			return true
		}
	}
	return false
}

// Written lists the files persisted so far
func (r *Report) Written() []string {
	var out []string
	for _, f := range r.Files {
		if f.Status == status.StatusWritten {
			out = append(out, f.Path)
		}
	}
	return out
}

// 🏃 Runner applies a specification file by file, strictly in order
type Runner struct {
	opts Options
}

// 🏗️ NewRunner creates a new runner
func NewRunner(opts Options) (*Runner, error) {
	if opts.Files == nil {
		return nil, errors.Errorf("file manager is required")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Runner{opts: opts}, nil
}

func (r *Runner) writes() bool {
	return !r.opts.Check && !r.opts.DryRun
}

// 🏃 Run applies spec. Every operation is built before any file is read, so a
// malformed specification never touches disk. The report is returned even on
// failure and records which files were already written.
func (r *Runner) Run(ctx context.Context, spec *config.Spec) (*Report, error) {
	logger := zerolog.Ctx(ctx)
	report := &Report{}

	built := make([][]Operation, len(spec.Files))
	for i, fe := range spec.Files {
		ops, err := BuildAll(fe.Path, fe.Ops)
		if err != nil {
			return report, err
		}
		built[i] = ops
	}

	// later FileEdits for the same path see earlier results, written or not
	overlay := map[string]text.Buffer{}

	for i, fe := range spec.Files {
		paths, err := r.opts.Files.Expand(ctx, fe.Path, fe.Exclude)
		if err != nil {
			return report, err
		}
		if len(paths) == 0 {
			logger.Debug().Str("path", fe.Path).Msg("every match excluded, skipping file edit")
		}

		for _, path := range paths {
			res, err := r.runFile(ctx, fe, built[i], path, overlay)
			report.Files = append(report.Files, res)
			r.logResult(ctx, res)
			if err != nil {
				return report, err
			}
		}
	}

	if !report.Changed() {
		fmt.Fprintln(r.opts.Out, NoChanges)
	}

	return report, nil
}

func (r *Runner) runFile(ctx context.Context, fe config.FileEdit, ops []Operation, path string, overlay map[string]text.Buffer) (FileResult, error) {
	logger := zerolog.Ctx(ctx)
	key := filepath.Clean(path)
	res := FileResult{Path: path, Ops: len(ops), Status: status.StatusFailed}

	before, ok := overlay[key]
	if !ok {
		content, err := r.opts.Files.ReadFile(ctx, path)
		if err != nil {
			return res, errors.Errorf("%s: %w", path, err)
		}
		before = text.NewBuffer(string(content))
	}

	env := &Env{Path: path, Language: fe.Language, Locators: r.opts.Locators}
	after, err := Apply(ctx, env, before, ops)
	if err != nil {
		return res, err
	}
	overlay[key] = after

	if after.String() == before.String() {
		logger.Debug().Str("file", path).Msg("no changes")
		res.Status = status.StatusUnchanged
		return res, nil
	}

	res.Stats = diff.LineStats(before.String(), after.String())

	unified, err := diff.Unified(filepath.ToSlash(path), before.String(), after.String())
	if err != nil {
		return res, err
	}
	if r.opts.Color {
		unified = diff.Colorize(unified)
	}
	fmt.Fprint(r.opts.Out, unified)

	if !r.writes() {
		res.Status = status.StatusPending
		return res, nil
	}

	if err := r.opts.Files.WriteFileAtomic(ctx, path, []byte(after.String())); err != nil {
		return res, errors.Errorf("%s: %w", path, err)
	}
	res.Status = status.StatusWritten
	return res, nil
}

func (r *Runner) logResult(ctx context.Context, res FileResult) {
	console := log.FromContext(ctx)
	if console == nil {
		return
	}
	console.LogFileOperation(ctx, log.FileOperation{
		Path:    res.Path,
		Status:  res.Status,
		Ops:     res.Ops,
		Added:   res.Stats.Added,
		Removed: res.Stats.Removed,
	})
}
