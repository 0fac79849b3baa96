// Package pattern renders response templates with named {placeholders}.
//
// The syntax is a small subset of brace formatting: "{name}" is replaced with
// the value bound to name, "{{" and "}}" produce literal braces. Anything else
// involving braces is rejected rather than passed through.
package pattern

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("malformed pattern")

// MissingPlaceholderError reports a placeholder with no bound value.
type MissingPlaceholderError struct {
	Name string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("missing value for placeholder {%s}", e.Name)
}

// Render substitutes vars into tmpl. It never returns a partially rendered
// string: on error the result is empty.
func Render(tmpl string, vars map[string]string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tmpl))

	err := walk(tmpl, sb.WriteByte, func(name string) error {
		val, ok := vars[name]
		if !ok {
			return &MissingPlaceholderError{Name: name}
		}
		sb.WriteString(val)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func walk(tmpl string, literal func(byte) error, placeholder func(string) error) error {
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				literal('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformed, i)
			}
			name := tmpl[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "{ \t\n") {
				return fmt.Errorf("%w: invalid placeholder %q at offset %d", ErrMalformed, name, i)
			}
			if err := placeholder(name); err != nil {
				return err
			}
			// skip past the closing brace
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				literal('}')
				i++
				continue
			}
			return fmt.Errorf("%w: single '}' at offset %d", ErrMalformed, i)
		default:
			literal(c)
		}
	}
	return nil
}
