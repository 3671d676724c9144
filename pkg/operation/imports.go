package operation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/text"
)

// 📦 ensureImport adds an import line unless the name is already imported anywhere
type ensureImport struct {
	name string
	line string
	skip *string
}

func buildEnsureImport(op config.Op) (Operation, error) {
	name, err := identifier("name", op.Name, true)
	if err != nil {
		return nil, err
	}
	line := "import " + name
	if op.Line != nil && strings.TrimSpace(*op.Line) != "" {
		line = strings.TrimSpace(*op.Line)
	}
	return &ensureImport{name: name, line: line, skip: op.SkipIfContains}, nil
}

func (o *ensureImport) Kind() string { return KindEnsureImport }

func (o *ensureImport) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	logger := zerolog.Ctx(ctx)

	if skipped(ctx, KindEnsureImport, buf, o.skip) {
		return buf, nil
	}
	if hasImport(buf.String(), o.name) || hasLine(buf.String(), o.line) {
		logger.Debug().Str("file", env.Path).Str("name", o.name).Msg("import already present")
		return buf, nil
	}

	s := buf.String()
	h := scanHeader(buf)
	pos := h.end

	ins := o.line + "\n"
	if !h.imports {
		if pos > 0 {
			ins = "\n" + ins
		}
		if rest := s[pos:]; rest != "" && !strings.HasPrefix(strings.TrimLeft(rest, " \t"), "\n") {
			ins += "\n"
		}
	}
	if pos == len(s) && s != "" && !strings.HasSuffix(s, "\n") {
		ins = "\n" + ins
	}

	return buf.Insert(pos, ins)
}

// 🔍 hasImport reports whether any import statement in src binds or names
// name: `import name`, `import name.sub`, `import a, name as n`, `from name import x`,
// `from pkg import name` and `from pkg import (a, name)`.
func hasImport(src, name string) bool {
	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		stmt := strings.TrimSpace(stripComment(lines[i]))

		switch {
		case strings.HasPrefix(stmt, "import "):
			if importBinds(stmt[len("import "):], name) {
				return true
			}
		case strings.HasPrefix(stmt, "from "):
			mod, names, ok := strings.Cut(stmt[len("from "):], " import ")
			if !ok {
				continue
			}
			if strings.TrimSpace(mod) == name {
				return true
			}
			// parenthesised names may span lines
			for strings.Count(names, "(") > strings.Count(names, ")") && i+1 < len(lines) {
				i++
				names += " " + strings.TrimSpace(stripComment(lines[i]))
			}
			for _, item := range importItems(names) {
				if item == name {
					return true
				}
			}
		}
	}
	return false
}

// importBinds reports whether an import list names name, directly or as the
// root of an unaliased dotted import: `import os.path` binds os.
func importBinds(list, name string) bool {
	for _, part := range strings.Split(list, ",") {
		fields := strings.Fields(strings.Trim(strings.TrimSpace(part), `()\ `))
		if len(fields) == 0 {
			continue
		}
		if fields[0] == name {
			return true
		}
		if len(fields) == 1 && strings.HasPrefix(fields[0], name+".") {
			return true
		}
	}
	return false
}

// importItems splits "a, b as c, (d)" into the imported names a, b, d
func importItems(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.Trim(strings.TrimSpace(part), `()\ `)
		if fields := strings.Fields(part); len(fields) > 0 {
			out = append(out, strings.Trim(fields[0], "()"))
		}
	}
	return out
}

func hasLine(src, line string) bool {
	for _, l := range strings.Split(src, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
