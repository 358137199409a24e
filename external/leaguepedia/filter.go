package leaguepedia

import (
	"fmt"
	"regexp"
	"strings"
)

var fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Filter is a cargo where-expression. Values are always quoted and escaped.
type Filter interface {
	appendExpr(buf *strings.Builder) error
}

type comparison struct {
	field string
	op    string
	value string
}

func Eq(field, value string) Filter {
	return comparison{field: field, op: "=", value: quoteValue(value)}
}

func Gte(field, value string) Filter {
	return comparison{field: field, op: ">=", value: quoteValue(value)}
}

// Like matches pattern with % as the only wildcard.
func Like(field, pattern string) Filter {
	return comparison{field: field, op: "LIKE", value: quoteValue(pattern)}
}

func (c comparison) appendExpr(buf *strings.Builder) error {
	if !fieldNameRegex.MatchString(c.field) {
		return fmt.Errorf("invalid filter field %q", c.field)
	}
	buf.WriteString(c.field)
	buf.WriteByte(' ')
	buf.WriteString(c.op)
	buf.WriteByte(' ')
	buf.WriteString(c.value)
	return nil
}

type conjunction struct {
	parts []Filter
}

// And joins filters, skipping nil entries.
func And(filters ...Filter) Filter {
	parts := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			continue
		}
		if nested, ok := f.(conjunction); ok && len(nested.parts) == 0 {
			continue
		}
		parts = append(parts, f)
	}
	return conjunction{parts: parts}
}

func (c conjunction) appendExpr(buf *strings.Builder) error {
	for i, part := range c.parts {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		if _, nested := part.(conjunction); nested {
			buf.WriteByte('(')
			if err := part.appendExpr(buf); err != nil {
				return err
			}
			buf.WriteByte(')')
			continue
		}
		if err := part.appendExpr(buf); err != nil {
			return err
		}
	}
	return nil
}

// Render returns the where-expression for f. A nil filter renders empty.
func Render(f Filter) (string, error) {
	if f == nil {
		return "", nil
	}
	var buf strings.Builder
	if err := f.appendExpr(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func quoteValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")
	return `"` + replacer.Replace(value) + `"`
}
