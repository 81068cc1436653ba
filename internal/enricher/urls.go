package enricher

import (
	"strings"
	"unicode"
)

// Templates maps package names to declaration URL templates. Templates may
// use {package}, {version}, {path} (dots replaced by slashes), {name} (last
// path segment), {root} (first path segment) and {kebab} (root in kebab
// case).
type Templates map[string][]string

// DefaultTemplates covers the collections the editor ships profiles for.
var DefaultTemplates = Templates{
	"@mui/material": {
		"https://unpkg.com/{package}@{version}/{root}/{root}.d.ts",
		"https://unpkg.com/{package}@{version}/{root}/index.d.ts",
	},
	"antd": {
		"https://unpkg.com/{package}@{version}/es/{kebab}/index.d.ts",
	},
}

// DefaultFallback is used for packages without templates of their own.
var DefaultFallback = []string{
	"https://cdn.jsdelivr.net/npm/{package}@{version}/{path}.d.ts",
	"https://cdn.jsdelivr.net/npm/{package}@{version}/{root}/index.d.ts",
}

// Resolve expands the templates for a component path.
func Resolve(templates Templates, fallback []string, packageName, version, path string) []string {
	if packageName == "" || path == "" {
		return nil
	}
	if version == "" {
		version = "latest"
	}

	patterns, ok := templates[packageName]
	if !ok || len(patterns) == 0 {
		patterns = fallback
	}

	segments := strings.Split(path, ".")
	replacer := strings.NewReplacer(
		"{package}", packageName,
		"{version}", version,
		"{path}", strings.Join(segments, "/"),
		"{name}", segments[len(segments)-1],
		"{root}", segments[0],
		"{kebab}", kebab(segments[0]),
	)

	urls := make([]string, 0, len(patterns))
	for _, p := range patterns {
		urls = append(urls, replacer.Replace(p))
	}
	return urls
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
