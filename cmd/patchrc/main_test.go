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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importSpec = `{"files": [{"path": "app.py", "ops": [{"op": "ensure_import", "name": "os"}]}]}`

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(args, "--no-color"), strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func setupTree(t *testing.T, spec string) (dir, specPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("import sys\n"), 0o644))
	specPath = filepath.Join(dir, "patch.json")
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))
	return dir, specPath
}

func readApp(t *testing.T, dir string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "app.py"))
	require.NoError(t, err)
	return string(b)
}

func TestCheckReportsPendingChanges(t *testing.T) {
	dir, spec := setupTree(t, importSpec)

	res := runCLI(t, "", spec, "--root", dir, "--check")
	assert.Equal(t, exitPending, res.code, "stderr: %s", res.stderr)
	assert.Contains(t, res.stdout, "--- a/app.py\n+++ b/app.py\n")
	assert.Contains(t, res.stdout, "+import os\n")
	assert.Contains(t, res.stderr, "would change")
	assert.Equal(t, "import sys\n", readApp(t, dir), "check mode writes nothing")
}

func TestApplyThenCheckIsClean(t *testing.T) {
	dir, spec := setupTree(t, importSpec)

	res := runCLI(t, "", spec, "--root", dir)
	require.Equal(t, exitOK, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "import sys\nimport os\n", readApp(t, dir))
	assert.Contains(t, res.stderr, "patched 1 file(s)")

	res = runCLI(t, "", spec, "--root", dir, "--check")
	assert.Equal(t, exitOK, res.code)
	assert.Equal(t, "no changes\n", res.stdout)
	assert.Contains(t, res.stderr, "already up to date")
}

func TestDryRunWritesNothing(t *testing.T) {
	dir, spec := setupTree(t, importSpec)

	res := runCLI(t, "", spec, "--root", dir, "--dry-run")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "+import os\n")
	assert.Equal(t, "import sys\n", readApp(t, dir))
}

func TestSpecFromStdin(t *testing.T) {
	dir, _ := setupTree(t, importSpec)

	res := runCLI(t, importSpec, "-", "--root", dir)
	require.Equal(t, exitOK, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "import sys\nimport os\n", readApp(t, dir))
}

func TestRootFromEnvironment(t *testing.T) {
	dir, spec := setupTree(t, importSpec)
	t.Setenv("PATCHRC_ROOT", dir)

	res := runCLI(t, "", spec)
	require.Equal(t, exitOK, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "import sys\nimport os\n", readApp(t, dir))
}

func TestDecodeEscapesFlag(t *testing.T) {
	spec := `{"files": [{"path": "app.py", "ops": [{"op": "insert_after", "anchor": "^import sys$", "text": "import os\\n"}]}]}`
	dir, specPath := setupTree(t, spec)

	res := runCLI(t, "", specPath, "--root", dir, "--decode-escapes")
	require.Equal(t, exitOK, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "import sys\nimport os\n", readApp(t, dir))
}

func TestViolations(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		args    []string
		wantMsg string
	}{
		{
			name:    "anchor_not_found",
			spec:    `{"files": [{"path": "app.py", "ops": [{"op": "insert_after", "anchor": "^# MARKER$", "text": "x\n"}]}]}`,
			wantMsg: `app.py: op #0 (insert_after) field "anchor"`,
		},
		{
			name:    "unknown_operation",
			spec:    `{"files": [{"path": "app.py", "ops": [{"op": "frobnicate"}]}]}`,
			wantMsg: "unknown operation kind",
		},
		{
			name:    "unknown_spec_field",
			spec:    `{"files": [{"path": "app.py", "ops": [{"op": "ensure_import", "name": "os", "colour": "red"}]}]}`,
			wantMsg: "malformed specification",
		},
		{
			name:    "missing_file",
			spec:    `{"files": [{"path": "gone.py", "ops": [{"op": "ensure_import", "name": "os"}]}]}`,
			wantMsg: "gone.py",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, spec := setupTree(t, tt.spec)

			res := runCLI(t, "", spec, "--root", dir)
			assert.Equal(t, exitViolation, res.code)
			assert.Contains(t, res.stderr, tt.wantMsg)
			assert.Equal(t, "import sys\n", readApp(t, dir), "a failed run leaves the file untouched")
		})
	}
}

func TestUsageErrors(t *testing.T) {
	res := runCLI(t, "")
	assert.Equal(t, exitViolation, res.code)
	assert.Contains(t, res.stderr, "accepts 1 arg(s)")

	res = runCLI(t, "", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, exitViolation, res.code)
	assert.Contains(t, res.stderr, "opening spec")
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "--version")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "patchrc version info")
}
