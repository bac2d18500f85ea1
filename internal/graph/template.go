package graph

import (
	"regexp"
	"strings"
)

// Placeholders use {name} with an enumerated variable set per stage run.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// renderTemplate substitutes every {name} placeholder from vars. A
// placeholder with no matching variable is a configuration defect, reported
// through the returned missing name rather than rendered literally.
func renderTemplate(template string, vars map[string]string) (string, string) {
	missing := ""
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		value, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return value
	})
	return rendered, missing
}
