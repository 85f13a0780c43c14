package asm

import (
	"strings"
	"unicode"
)

// statement is one lexed source line.
type statement struct {
	labels   []string
	mnemonic string // lower-cased; empty for label-only lines
	operands []string
}

// lex splits a source line into labels, mnemonic and operands. Comments
// start at '#' or ';' outside of quotes. Operands are separated by commas
// or whitespace outside of parentheses and quotes.
func lex(line string) (stmt statement, err error) {
	rest := strings.TrimSpace(stripComment(line))

	for {
		name, after, ok := cutLabel(rest)
		if !ok {
			break
		}
		if !isIdentifier(name) {
			err = ErrLabelSyntax
			return
		}
		stmt.labels = append(stmt.labels, name)
		rest = strings.TrimSpace(after)
	}

	if rest == "" {
		return
	}

	mnemonic, operands := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		mnemonic, operands = rest[:i], rest[i+1:]
	}

	stmt.mnemonic = strings.ToLower(mnemonic)
	stmt.operands = splitOperands(operands)

	return
}

// cutLabel splits "name: rest" when the line starts with a label.
func cutLabel(s string) (name, rest string, ok bool) {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return "", s, false
	}
	name = s[:i]
	if strings.ContainsAny(name, " \t,()'\"") {
		return "", s, false
	}
	return name, s[i+1:], true
}

func stripComment(line string) string {
	quote := byte(0)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == '#' || c == ';':
			return line[:i]
		}
	}
	return line
}

func splitOperands(s string) (ops []string) {
	var (
		depth int
		quote byte
		start = -1
	)

	flush := func(end int) {
		if start >= 0 {
			ops = append(ops, s[start:end])
			start = -1
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && (c == ',' || c == ' ' || c == '\t'):
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(s))

	return
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '.' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
