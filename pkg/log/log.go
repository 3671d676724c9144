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

// Package log prints the human-readable run summary and mirrors it to zerolog.
package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/status"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 10 // Width for status text
	opsWidth    = 7  // Width for the operation count
)

// 🎯 FileOperation is the outcome of one FileEdit on one file
type FileOperation struct {
	Path    string            // File path
	Status  status.FileStatus // Outcome
	Ops     int               // Number of operations applied
	Added   int               // Lines added
	Removed int               // Lines removed
}

// 📦 RunOperation describes one invocation
type RunOperation struct {
	Source string // Specification source, "-" for stdin
	Mode   string // apply, check or dry-run
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentRun *RunOperation
	operations []FileOperation
}

// 🏭 New creates a new logger printing to console and mirroring to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, nil when none was attached
func FromContext(ctx context.Context) *Logger {
	logger, _ := ctx.Value(contextKey{}).(*Logger)
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case status.StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case status.StatusWritten:
		symbol = '✓'
		symbolColor = color.FgGreen
	case status.StatusPending:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	ops := fmt.Sprintf("%d ops", op.Ops)
	if op.Ops == 1 {
		ops = "1 op"
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		fmt.Sprintf("%-*s", statusWidth, op.Status.String()),
		color.New(color.Faint).Sprint(fmt.Sprintf("%-*s", opsWidth, ops)))

	if op.Added > 0 || op.Removed > 0 {
		line += fmt.Sprintf(" %s %s",
			color.GreenString("+%d", op.Added),
			color.RedString("-%d", op.Removed))
	}
	return line
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	l.zlog.Info().
		Str("file", op.Path).
		Str("status", op.Status.String()).
		Int("ops", op.Ops).
		Int("added", op.Added).
		Int("removed", op.Removed).
		Msg("file operation")
}

// 📝 StartRun prints the header of a run
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentRun = &op
	l.operations = nil

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Mode))

	l.zlog.Info().
		Str("source", op.Source).
		Str("mode", op.Mode).
		Msg("starting patch run")
}

// 📝 EndRun logs the run summary and returns the number of files that changed
func (l *Logger) EndRun(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentRun == nil {
		return 0
	}

	changed := 0
	for _, op := range l.operations {
		if op.Status == status.StatusPending || op.Status == status.StatusWritten {
			changed++
		}
	}

	l.zlog.Info().
		Str("source", l.currentRun.Source).
		Int("files", len(l.operations)).
		Int("changed", changed).
		Msg("patch run complete")

	l.currentRun = nil
	l.operations = nil
	return changed
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
