package nodes

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"
)

// Render replaces {{name}} tokens in tmpl with the stringified value of
// data[name]. Tokens with no matching key are left in place, not removed.
// Matching is case-sensitive; whitespace inside the braces is tolerated.
func Render(tmpl string, data map[string]any) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	out, err := fasttemplate.ExecuteFuncStringWithErr(tmpl, "{{", "}}",
		func(w io.Writer, tag string) (int, error) {
			key := strings.TrimSpace(tag)
			v, ok := data[key]
			if !ok {
				return io.WriteString(w, "{{"+tag+"}}")
			}
			return io.WriteString(w, stringify(v))
		})
	if err != nil {
		// Unterminated tag; hand the template back untouched.
		return tmpl
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	if raw, err := json.Marshal(v); err == nil {
		return string(raw)
	}
	return fmt.Sprintf("%v", v)
}
