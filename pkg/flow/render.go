package flow

import (
	"fmt"
	"regexp"
)

// Node text may reference previously collected variables as {{name}}.
var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// RenderText substitutes {{variable}} placeholders with collected session
// values. Unknown placeholders are left verbatim so a typo in the builder
// stays visible instead of silently vanishing.
func RenderText(text string, vars map[string]any) string {
	if len(vars) == 0 {
		return text
	}

	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]

		value, ok := vars[name]
		if !ok {
			return match
		}

		return formatValue(value)
	})
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// %g keeps collected number answers free of trailing zeroes.
		return fmt.Sprintf("%g", v)
	case []SelectedValue:
		out := ""

		for i, sel := range v {
			if i > 0 {
				out += ", "
			}

			out += sel.Label
		}

		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}
