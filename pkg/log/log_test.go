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

package log

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/patchrc/pkg/status"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_file_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFileOperation(context.Background(), FileOperation{
					Path:    "app.py",
					Status:  status.StatusPending,
					Ops:     3,
					Added:   2,
					Removed: 1,
				})
			},
			wantLogs: []string{
				"⟳ app.py                              pending    3 ops   +2 -1",
			},
		},
		{
			name: "log_run",
			op: func(t *testing.T, logger *Logger) {
				logger.StartRun(context.Background(), RunOperation{
					Source: "patches.yaml",
					Mode:   "check",
				})
			},
			wantLogs: []string{
				"◆ patches.yaml • check",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Warning("warning message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"⚠️  warning message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Warningf("warning %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"⚠️  warning test",
				"✅ success test",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())

	ctx := NewContext(context.Background(), logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	assert.Nil(t, FromContext(context.Background()), "no logger attached")
}

func TestFileOperationFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		op   FileOperation
		want string
	}{
		{
			name: "written_file",
			op:   FileOperation{Path: "lib/util.py", Status: status.StatusWritten, Ops: 1, Added: 4},
			want: "    ✓ lib/util.py                         written    1 op    +4 -0",
		},
		{
			name: "unchanged_file",
			op:   FileOperation{Path: "README.py", Status: status.StatusUnchanged, Ops: 2},
			want: "    • README.py                           unchanged  2 ops",
		},
		{
			name: "failed_file",
			op:   FileOperation{Path: "broken.py", Status: status.StatusFailed, Ops: 1},
			want: "    ✗ broken.py                           failed     1 op",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(io.Discard, zerolog.Nop())
			assert.Equal(t, tt.want, strings.TrimRight(logger.formatFileOperation(tt.op), " "))
		})
	}
}

func TestEndRunCountsChangedFiles(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	ctx := context.Background()
	logger := New(io.Discard, zerolog.Nop())

	assert.Equal(t, 0, logger.EndRun(ctx), "no run in progress")

	logger.StartRun(ctx, RunOperation{Source: "-", Mode: "apply"})
	logger.LogFileOperation(ctx, FileOperation{Path: "a.py", Status: status.StatusWritten})
	logger.LogFileOperation(ctx, FileOperation{Path: "b.py", Status: status.StatusUnchanged})
	logger.LogFileOperation(ctx, FileOperation{Path: "c.py", Status: status.StatusPending})

	assert.Equal(t, 2, logger.EndRun(ctx))
}
