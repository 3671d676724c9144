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

// Package locate finds named declarations inside parsed source files.
//
// The engine only ever talks to the Locator and Tree interfaces; each
// supported language registers its own implementation.
package locate

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ DeclKind is the kind of a located declaration
type DeclKind string

const (
	KindFunction DeclKind = "function"
	KindClass    DeclKind = "class"
)

// 📍 Declaration is a located function, class or method.
// Lines are 0-based and inclusive; byte offsets cover whole lines, so
// [StartByte, EndByte) is the declaration's text including decorators and the
// newline ending its last line.
type Declaration struct {
	Kind          DeclKind
	Name          string
	StartLine     int
	EndLine       int
	StartByte     int
	EndByte       int
	Indent        string // whitespace before the first line of the declaration
	BodyIndent    string // indentation of the first statement line of the body
	BodyStartLine int
	BodyStartByte int  // offset of the first body statement
	InlineBody    bool // body shares the header line, e.g. `class A: pass`
}

// 🌳 Tree answers declaration lookups against one parse of one file
type Tree interface {
	// Functions returns every function (sync or async) named name, nested scopes included
	Functions(name string) []Declaration
	// Classes returns every class named name, nested scopes included
	Classes(name string) []Declaration
	// Methods returns the functions named name in the immediate body of class
	Methods(class Declaration, name string) []Declaration
}

// 🔌 Locator parses source text for one language
type Locator interface {
	Language() string
	Extensions() []string
	Parse(ctx context.Context, path string, src []byte) (Tree, error)
}

// 🗺️ Registry selects a Locator by language name or file extension
type Registry struct {
	mu     sync.RWMutex
	byLang map[string]Locator
	byExt  map[string]Locator
}

// 🏭 NewRegistry returns a registry holding locs
func NewRegistry(locs ...Locator) *Registry {
	r := &Registry{
		byLang: map[string]Locator{},
		byExt:  map[string]Locator{},
	}
	for _, l := range locs {
		r.Register(l)
	}
	return r
}

// 📝 Register adds l, replacing any locator with the same language or extension
func (r *Registry) Register(l Locator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLang[strings.ToLower(l.Language())] = l
	for _, ext := range l.Extensions() {
		r.byExt[strings.ToLower(ext)] = l
	}
}

// 🎯 For returns the locator for language, or for path's extension when language is empty
func (r *Registry) For(path, language string) (Locator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if language != "" {
		l, ok := r.byLang[strings.ToLower(language)]
		if !ok {
			return nil, errors.Errorf("no structural locator for language %q", language)
		}
		return l, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	l, ok := r.byExt[ext]
	if !ok {
		return nil, errors.Errorf("no structural locator for %q (extension %q)", path, ext)
	}
	return l, nil
}
