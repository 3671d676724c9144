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

package status

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/patcherr"
)

// 📊 FileStatus is the outcome of one FileEdit
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusUnchanged            // operations produced identical text
	StatusPending              // text changed but was not written (check / dry-run)
	StatusWritten              // text changed and was persisted
	StatusFailed               // an operation failed; the file was left untouched
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusPending:
		return "pending"
	case StatusWritten:
		return "written"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 💾 FileManager handles all file system operations of a run
type FileManager interface {
	// Expand resolves a path or doublestar glob to sorted relative paths
	Expand(ctx context.Context, pattern string, exclude []string) ([]string, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFileAtomic(ctx context.Context, path string, content []byte) error
}

// 🔧 Manager implements FileManager rooted at a base directory
type Manager struct {
	baseDir string
}

var _ FileManager = (*Manager)(nil)

// 🏭 New creates a new file manager; relative paths resolve against baseDir
func New(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = "."
	}
	return &Manager{baseDir: filepath.Clean(baseDir)}
}

// 🔒 getAbsPath returns the path used on disk for a spec path
func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 Expand returns [pattern] for a plain path and the sorted matches for a glob.
// A glob matching nothing is a spec error; a plain path is returned as is and
// fails later, when it is read.
func (m *Manager) Expand(ctx context.Context, pattern string, exclude []string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	for _, ex := range exclude {
		if !doublestar.ValidatePattern(ex) {
			return nil, errors.Errorf("%w: invalid exclude pattern %q", patcherr.ErrSpecShape, ex)
		}
	}

	if !hasMeta(pattern) {
		if excluded(pattern, exclude) {
			return nil, nil
		}
		return []string{pattern}, nil
	}

	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, errors.Errorf("%w: invalid path pattern %q", patcherr.ErrSpecShape, pattern)
	}

	root, pat := m.baseDir, filepath.ToSlash(pattern)
	if filepath.IsAbs(pattern) {
		base, rest := doublestar.SplitPattern(pat)
		root, pat = filepath.FromSlash(base), rest
	}

	matches, err := doublestar.Glob(os.DirFS(root), pat, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("expanding %q: %w", pattern, err)
	}

	out := make([]string, 0, len(matches))
	for _, match := range matches {
		p := filepath.FromSlash(match)
		if root != m.baseDir {
			p = filepath.Join(root, p)
		}
		if excluded(filepath.ToSlash(p), exclude) {
			logger.Debug().Str("file", p).Msg("file excluded by pattern")
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)

	if len(out) == 0 {
		return nil, errors.Errorf("%w: path pattern %q matched no files", patcherr.ErrSpecShape, pattern)
	}

	logger.Debug().Str("pattern", pattern).Int("files", len(out)).Msg("expanded path pattern")
	return out, nil
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// 💾 WriteFileAtomic writes content next to path and renames it into place,
// so concurrent readers see either the old file or the new one.
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) (err error) {
	absPath := m.getAbsPath(path)
	dir := filepath.Dir(absPath)

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(absPath); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath) // Clean up temp file
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return errors.Errorf("setting temp file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err = os.Rename(tmpPath, absPath); err != nil {
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("file", path).Int("bytes", len(content)).Msg("wrote file atomically")
	return nil
}

func hasMeta(path string) bool {
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func excluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, filepath.ToSlash(path)); matched {
			return true
		}
	}
	return false
}
