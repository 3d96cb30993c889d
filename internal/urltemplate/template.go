// Package urltemplate parses and expands URL templates with {name}
// placeholders, e.g. "/v1/dogs/{id}".
package urltemplate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a parsed URL path template. Immutable after Parse.
type Template struct {
	raw          string
	placeholders []string
}

// Parse validates the template and extracts its placeholders. Braces that do
// not form a valid placeholder make the template malformed.
func Parse(raw string) (*Template, error) {
	stripped := placeholderPattern.ReplaceAllString(raw, "")
	if strings.ContainsAny(stripped, "{}") {
		return nil, fmt.Errorf("malformed template %q", raw)
	}
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(raw, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return &Template{raw: raw, placeholders: names}, nil
}

// Raw returns the template as registered.
func (t *Template) Raw() string { return t.raw }

// Placeholders returns the distinct placeholder names in order of appearance.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// ExpandLenient substitutes known placeholders and blanks out the rest,
// trimming any trailing slash the blanks leave behind.
func (t *Template) ExpandLenient(args map[string]string) string {
	expanded := t.raw
	for _, name := range t.placeholders {
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", url.PathEscape(args[name]))
	}
	return strings.TrimRight(expanded, "/")
}

// Expand substitutes every placeholder with its path-escaped argument.
// Every placeholder must have a non-empty value.
func (t *Template) Expand(args map[string]string) (string, error) {
	expanded := t.raw
	for _, name := range t.placeholders {
		value, ok := args[name]
		if !ok || value == "" {
			return "", fmt.Errorf("missing value for placeholder %q", name)
		}
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", url.PathEscape(value))
	}
	return expanded, nil
}
