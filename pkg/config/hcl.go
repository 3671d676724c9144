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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL specs
type HCLParser struct{}

func (p *HCLParser) Format() string { return "hcl" }

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// Define HCL schema
type hclSpec struct {
	DecodeEscapes *bool     `hcl:"decode_escapes,optional"`
	Files         []hclFile `hcl:"file,block"`
}

type hclFile struct {
	Path     string   `hcl:"path,label"`
	Exclude  []string `hcl:"exclude,optional"`
	Language *string  `hcl:"language,optional"`
	Ops      []hclOp  `hcl:"op,block"`
}

type hclOp struct {
	Kind           string  `hcl:"kind,label"`
	Anchor         *string `hcl:"anchor,optional"`
	Text           *string `hcl:"text,optional"`
	Replacement    *string `hcl:"replacement,optional"`
	Start          *string `hcl:"start,optional"`
	End            *string `hcl:"end,optional"`
	Block          *string `hcl:"block,optional"`
	IncludeEnd     *bool   `hcl:"include_end,optional"`
	FallbackAnchor *string `hcl:"fallback_anchor,optional"`
	Name           *string `hcl:"name,optional"`
	Class          *string `hcl:"class,optional"`
	Line           *string `hcl:"line,optional"`
	SkipIfContains *string `hcl:"skip_if_contains,optional"`
}

// 📝 Parse parses the spec from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Spec, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "spec.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclSpec
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	spec := &Spec{}
	if raw.DecodeEscapes != nil {
		spec.DecodeEscapes = *raw.DecodeEscapes
	}
	for _, f := range raw.Files {
		fe := FileEdit{
			Path:    f.Path,
			Exclude: f.Exclude,
		}
		if f.Language != nil {
			fe.Language = *f.Language
		}
		for _, o := range f.Ops {
			fe.Ops = append(fe.Ops, Op{
				Op:             o.Kind,
				Anchor:         o.Anchor,
				Text:           o.Text,
				Replacement:    o.Replacement,
				Start:          o.Start,
				End:            o.End,
				Block:          o.Block,
				IncludeEnd:     o.IncludeEnd,
				FallbackAnchor: o.FallbackAnchor,
				Name:           o.Name,
				Class:          o.Class,
				Line:           o.Line,
				SkipIfContains: o.SkipIfContains,
			})
		}
		spec.Files = append(spec.Files, fe)
	}

	return spec, nil
}
