package cypher

import "strings"

// Builder assembles one Cypher statement clause by clause on a single
// line. It is a plain text writer; alias and parameter discipline live
// in Scope and Params.
type Builder struct {
	sb strings.Builder
}

func (b *Builder) keyword(kw string) *Builder {
	if b.sb.Len() > 0 {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteString(kw)
	return b
}

func (b *Builder) arg(s string) *Builder {
	b.sb.WriteByte(' ')
	b.sb.WriteString(s)
	return b
}

// Match appends a MATCH clause.
func (b *Builder) Match(pattern string) *Builder {
	return b.keyword("MATCH").arg(pattern)
}

// OptionalMatch appends an OPTIONAL MATCH clause.
func (b *Builder) OptionalMatch(pattern string) *Builder {
	return b.keyword("OPTIONAL MATCH").arg(pattern)
}

// Where appends a WHERE clause.
func (b *Builder) Where(cond string) *Builder {
	return b.keyword("WHERE").arg(cond)
}

// With appends a WITH clause.
func (b *Builder) With(distinct bool, exprs ...string) *Builder {
	b.keyword("WITH")
	if distinct {
		b.arg("DISTINCT")
	}
	return b.arg(strings.Join(exprs, ", "))
}

// Return appends a RETURN clause.
func (b *Builder) Return(distinct bool, exprs ...string) *Builder {
	b.keyword("RETURN")
	if distinct {
		b.arg("DISTINCT")
	}
	return b.arg(strings.Join(exprs, ", "))
}

// OrderBy appends an ORDER BY clause.
func (b *Builder) OrderBy(terms ...string) *Builder {
	return b.keyword("ORDER BY").arg(strings.Join(terms, ", "))
}

// Skip appends a SKIP clause.
func (b *Builder) Skip(expr string) *Builder {
	return b.keyword("SKIP").arg(expr)
}

// Limit appends a LIMIT clause.
func (b *Builder) Limit(expr string) *Builder {
	return b.keyword("LIMIT").arg(expr)
}

// String returns the assembled statement.
func (b *Builder) String() string { return b.sb.String() }

// Ident quotes an identifier with backticks when it is not a plain
// name. Plain names pass through untouched to keep statements
// readable.
func Ident(name string) string {
	if plainIdent(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func plainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
