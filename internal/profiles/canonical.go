package profiles

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/types"
)

// GenericGroupID is the group top-level exports land in.
const GenericGroupID = "general"

// Components returns a canonicalizer that maps every scanned path to a
// component using only naming conventions. adapters overrides the default
// props adapter per path.
func Components(libraryID string, adapters map[string]types.Adapter) func(host.Module, []string) ([]types.CanonicalComponent, error) {
	return func(module host.Module, paths []string) ([]types.CanonicalComponent, error) {
		out := make([]types.CanonicalComponent, 0, len(paths))
		for _, path := range paths {
			value, ok := host.Resolve(module, path)
			if !ok {
				return nil, fmt.Errorf("scanned path %q does not resolve", path)
			}

			adapter, ok := adapters[path]
			if !ok {
				adapter = types.DefaultAdapter
			}

			out = append(out, types.CanonicalComponent{
				LibraryID:     libraryID,
				ComponentName: DisplayName(path),
				Component:     value,
				RuntimeType:   libraryID + ":" + path,
				ItemID:        libraryID + "-" + Kebab(path),
				Path:          path,
				Adapter:       adapter,
				CodegenHints:  map[string]any{"import": strings.SplitN(path, ".", 2)[0]},
			})
		}
		return out, nil
	}
}

// Groups returns a grouping function that puts top-level exports in
// "<libraryId>-general" and members of a namespace in a group named after
// that namespace.
func Groups(libraryID, libraryTitle string) func([]types.CanonicalComponent) []types.CanonicalGroup {
	if libraryTitle == "" {
		libraryTitle = DisplayName(libraryID)
	}
	return func(components []types.CanonicalComponent) []types.CanonicalGroup {
		index := make(map[string]int)
		var groups []types.CanonicalGroup

		for _, c := range components {
			suffix, groupTitle := GenericGroupID, libraryTitle
			if ns, _, nested := strings.Cut(c.Path, "."); nested {
				suffix, groupTitle = Kebab(ns), DisplayName(ns)
			}

			id := libraryID + "-" + suffix
			i, ok := index[id]
			if !ok {
				i = len(groups)
				index[id] = i
				groups = append(groups, types.CanonicalGroup{
					ID:        id,
					Title:     groupTitle,
					Source:    types.GroupSourceExternal,
					LibraryID: libraryID,
				})
			}
			groups[i].Items = append(groups[i].Items, c)
		}
		return groups
	}
}

// DisplayName turns an export path such as "Form.ItemGroup" into
// "Form Item Group".
func DisplayName(path string) string {
	words := splitWords(path)
	for i, w := range words {
		words[i] = title(w)
	}
	return strings.Join(words, " ")
}

// Kebab turns an export path such as "Form.ItemGroup" into
// "form-item-group".
func Kebab(path string) string {
	words := splitWords(path)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// title upper-cases the first letter of each word. A Caser keeps state, so
// each call builds its own.
func title(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

func splitWords(path string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	runes := []rune(path)
	for i, r := range runes {
		switch {
		case r == '.' || r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && len(current) > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return words
}
