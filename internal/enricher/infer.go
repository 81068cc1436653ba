package enricher

import (
	"regexp"
	"strings"
	"sync"
)

// WellKnownProps are the props whose literal alternatives are worth
// offering as choices in the editor.
var WellKnownProps = []string{"category", "type", "variant", "color", "severity", "size"}

var (
	quotedPattern     = regexp.MustCompile(`'([^'\\\n]*)'|"([^"\\\n]*)"`)
	identifierPattern = regexp.MustCompile(`\b([A-Z][A-Za-z0-9_]*)\b`)
	aliasPattern      = regexp.MustCompile(`(?s)\btype\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?:<[^=]*>)?\s*=\s*([^;]+);`)

	// propPatterns caches the annotation pattern of each prop name.
	propPatterns sync.Map
)

// InferOptions extracts the quoted literal alternatives of each prop from
// declaration text. A prop's annotation is used directly when it contains
// quoted literals; otherwise named aliases in the annotation are looked up
// once and their union members used. Alias chains are not followed further.
// Only props with more than one distinct value are returned.
func InferOptions(text string, propNames []string) map[string][]string {
	out := make(map[string][]string)
	if text == "" {
		return out
	}

	for _, prop := range propNames {
		values := inferProp(text, prop)
		if len(values) > 1 {
			out[prop] = values
		}
	}
	return out
}

func propPattern(prop string) *regexp.Regexp {
	if cached, ok := propPatterns.Load(prop); ok {
		return cached.(*regexp.Regexp)
	}
	pattern := regexp.MustCompile(`(?m)(?:^|[\s{;,(])` + regexp.QuoteMeta(prop) + `\??\s*:\s*([^;\n]+)`)
	actual, _ := propPatterns.LoadOrStore(prop, pattern)
	return actual.(*regexp.Regexp)
}

func inferProp(text, prop string) []string {
	for _, match := range propPattern(prop).FindAllStringSubmatch(text, -1) {
		annotation := match[1]

		if values := quotedValues(annotation); len(values) > 0 {
			return values
		}

		for _, ident := range identifierPattern.FindAllStringSubmatch(annotation, -1) {
			if values := quotedValues(aliasBody(text, ident[1])); len(values) > 0 {
				return values
			}
		}
	}
	return nil
}

// aliasBody returns the right-hand side of the first `type Name = ...;`.
func aliasBody(text, name string) string {
	for _, match := range aliasPattern.FindAllStringSubmatch(text, -1) {
		if match[1] == name {
			return match[2]
		}
	}
	return ""
}

func quotedValues(s string) []string {
	var values []string
	seen := make(map[string]struct{})
	for _, m := range quotedPattern.FindAllStringSubmatch(s, -1) {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
