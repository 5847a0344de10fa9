package sqlview

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNotReadOnly is returned for anything other than a single SELECT (or WITH ... SELECT).
var ErrNotReadOnly = errors.New("only a single read-only SELECT statement is allowed")

// forbidden words may not appear outside quotes. REPLACE is absent because replace() is a
// string function; REPLACE INTO cannot start a SELECT anyway.
var forbidden = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "CREATE": true, "DROP": true, "ALTER": true,
	"PRAGMA": true, "ATTACH": true, "DETACH": true, "VACUUM": true, "REINDEX": true,
	"SAVEPOINT": true, "RELEASE": true, "BEGIN": true, "COMMIT": true, "ROLLBACK": true,
}

// readOnlyStatement validates query and returns it without trailing semicolons.
func readOnlyStatement(query string) (string, error) {
	words, end, err := scanSQL(query)
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return "", fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}
	if first := words[0]; first != "SELECT" && first != "WITH" {
		return "", fmt.Errorf("%w: statement starts with %s", ErrNotReadOnly, first)
	}
	for _, w := range words {
		if forbidden[w] {
			return "", fmt.Errorf("%w: %s is not permitted", ErrNotReadOnly, w)
		}
	}
	return strings.TrimSpace(query[:end]), nil
}

// scanSQL returns the upper-cased bare words of query, skipping quoted text and comments, and
// the offset where the statement ends. A semicolon followed by anything but whitespace or
// comments is an error.
func scanSQL(q string) ([]string, int, error) {
	var words []string
	end := len(q)
	closed := false
	for i := 0; i < len(q); {
		c := q[i]
		switch {
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			for i < len(q) && q[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			j := strings.Index(q[i+2:], "*/")
			if j < 0 {
				return nil, 0, fmt.Errorf("%w: unterminated comment", ErrNotReadOnly)
			}
			i += j + 4
			continue
		case unicode.IsSpace(rune(c)):
			i++
			continue
		}
		if closed {
			return nil, 0, fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
		}
		switch {
		case c == ';':
			closed, end = true, i
			i++
		case c == '\'' || c == '"' || c == '`' || c == '[':
			stop := c
			if c == '[' {
				stop = ']'
			}
			j := strings.IndexByte(q[i+1:], stop)
			if j < 0 {
				return nil, 0, fmt.Errorf("%w: unterminated quote", ErrNotReadOnly)
			}
			// a doubled quote is an escaped quote; scanning resumes right after it either way
			i += j + 2
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i
			for j < len(q) && (q[j] == '_' || q[j] == '$' || unicode.IsLetter(rune(q[j])) || unicode.IsDigit(rune(q[j]))) {
				j++
			}
			words = append(words, strings.ToUpper(q[i:j]))
			i = j
		default:
			i++
		}
	}
	return words, end, nil
}
