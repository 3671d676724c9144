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

package config

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

// StdinMarker as a spec source means "read from standard input"
const StdinMarker = "-"

// 📚 Spec is the full set of edits for one run. Read-only once loaded.
type Spec struct {
	DecodeEscapes bool       `json:"decode_escapes,omitempty" yaml:"decode_escapes,omitempty"`
	Files         []FileEdit `json:"files" yaml:"files" validate:"dive"`
}

// 📄 FileEdit binds a path (or doublestar glob) to an ordered list of operations
type FileEdit struct {
	Path     string   `json:"path" yaml:"path" validate:"required"`
	Exclude  []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	Ops      []Op     `json:"ops" yaml:"ops" validate:"dive"`
}

// 🔧 Op is the raw tagged variant of one edit. Pointer fields distinguish
// "absent" from "empty"; which of them are allowed depends on Op.
type Op struct {
	Op             string  `json:"op" yaml:"op" validate:"required"`
	Anchor         *string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Text           *string `json:"text,omitempty" yaml:"text,omitempty"`
	Replacement    *string `json:"replacement,omitempty" yaml:"replacement,omitempty"`
	Start          *string `json:"start,omitempty" yaml:"start,omitempty"`
	End            *string `json:"end,omitempty" yaml:"end,omitempty"`
	Block          *string `json:"block,omitempty" yaml:"block,omitempty"`
	IncludeEnd     *bool   `json:"include_end,omitempty" yaml:"include_end,omitempty"`
	FallbackAnchor *string `json:"fallback_anchor,omitempty" yaml:"fallback_anchor,omitempty"`
	Name           *string `json:"name,omitempty" yaml:"name,omitempty"`
	Class          *string `json:"class,omitempty" yaml:"class,omitempty"`
	Line           *string `json:"line,omitempty" yaml:"line,omitempty"`
	SkipIfContains *string `json:"skip_if_contains,omitempty" yaml:"skip_if_contains,omitempty"`
}

// 🔍 Fields lists the spec field names set on o, in declaration order
func (o Op) Fields() []string {
	var out []string
	add := func(name string, set bool) {
		if set {
			out = append(out, name)
		}
	}
	add("anchor", o.Anchor != nil)
	add("text", o.Text != nil)
	add("replacement", o.Replacement != nil)
	add("start", o.Start != nil)
	add("end", o.End != nil)
	add("block", o.Block != nil)
	add("include_end", o.IncludeEnd != nil)
	add("fallback_anchor", o.FallbackAnchor != nil)
	add("name", o.Name != nil)
	add("class", o.Class != nil)
	add("line", o.Line != nil)
	add("skip_if_contains", o.SkipIfContains != nil)
	return out
}

// 🔌 Parser decodes one specification format
type Parser interface {
	// 🏷️ Format is the name accepted by --format
	Format() string
	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
	// 📝 Parse decodes data into a Spec
	Parse(ctx context.Context, data []byte) (*Spec, error)
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns the parser for format, or the first one accepting filename
func GetParser(filename, format string) Parser {
	if format != "" {
		for _, p := range parsers {
			if strings.EqualFold(p.Format(), format) {
				return p
			}
		}
		return nil
	}
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🎯 Load reads a specification from path, or from stdin when path is StdinMarker
func Load(ctx context.Context, path, format string) (*Spec, error) {
	if path == StdinMarker {
		return LoadReader(ctx, os.Stdin, path, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening spec: %w", err)
	}
	defer f.Close()

	return LoadReader(ctx, f, path, format)
}

// 🎯 LoadReader decodes, validates and normalizes a specification from r.
// name is used for format detection; a stream defaults to JSON.
func LoadReader(ctx context.Context, r io.Reader, name, format string) (*Spec, error) {
	logger := zerolog.Ctx(ctx)

	if format == "" && name == StdinMarker {
		format = "json"
	}

	p := GetParser(name, format)
	if p == nil {
		if format != "" {
			return nil, errors.Errorf("%w: unsupported spec format %q", patcherr.ErrSpecShape, format)
		}
		return nil, errors.Errorf("%w: no parser found for spec %q", patcherr.ErrSpecShape, name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Errorf("reading spec: %w", err)
	}

	logger.Debug().Str("source", name).Str("format", p.Format()).Int("bytes", len(data)).Msg("loading specification")

	spec, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("%w: parsing %s spec: %s", patcherr.ErrSpecShape, p.Format(), err.Error())
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	spec.Normalize()

	logger.Debug().Int("files", len(spec.Files)).Msg("specification loaded")
	return spec, nil
}

// 🔍 Validate checks the structural shape shared by every operation kind
func (s *Spec) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Errorf("%w: %s is required", patcherr.ErrSpecShape, specFieldPath(verrs[0].Namespace()))
		}
		return errors.Errorf("%w: %s", patcherr.ErrSpecShape, err.Error())
	}
	return nil
}

// ✨ Normalize applies escape decoding to text-bearing fields when enabled
func (s *Spec) Normalize() {
	if !s.DecodeEscapes {
		return
	}
	for i := range s.Files {
		for j := range s.Files[i].Ops {
			op := &s.Files[i].Ops[j]
			decode(op.Text)
			decode(op.Replacement)
			decode(op.Block)
			decode(op.Line)
		}
	}
}

func decode(s *string) {
	if s != nil {
		*s = text.DecodeEscapes(*s)
	}
}

// specFieldPath turns "Spec.Files[0].Ops[1].Op" into "files[0].ops[1].op"
func specFieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Spec.")
	parts := strings.Split(ns, ".")
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return strings.Join(parts, ".")
}
