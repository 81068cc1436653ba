package profiles

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/types"
)

// DemoID is the id of the built-in demo library.
const DemoID = "demo"

// DemoEntry is the import specifier the demo module is linked under.
const DemoEntry = "builtin:demo"

// DemoModule returns a small component library linked into the binary. It
// exercises every export shape the scanner understands: plain components,
// a compound with members and a pure namespace.
func DemoModule() host.Module {
	form := host.Compound{
		Component: element("form", "demo-form"),
		Members: map[string]any{
			"Item":  element("div", "demo-form-item"),
			"Label": element("label", "demo-form-label"),
		},
	}
	return host.Module{
		"Button": element("button", "demo-button"),
		"Input":  voidElement("input", "demo-input"),
		"Dialog": element("dialog", "demo-dialog"),
		"Alert":  element("div", "demo-alert"),
		"Form":   form,
		"Layout": host.Module{
			"Stack": element("div", "demo-stack"),
			"Grid":  element("div", "demo-grid"),
		},
		"version":   "1.0.0",
		"useTheme":  func() string { return "light" },
		"Internals": map[string]any{"private": true},
	}
}

// DemoProfile describes the demo library.
func DemoProfile() types.LibraryProfile {
	children := types.Adapter{Kind: types.AdapterChildren}
	return types.LibraryProfile{
		ID:    DemoID,
		Title: "Demo",
		Descriptor: func() types.LibraryDescriptor {
			return types.LibraryDescriptor{
				LibraryID:       DemoID,
				PackageName:     "@palette/demo",
				Version:         "1.0.0",
				Source:          "builtin",
				EntryCandidates: []string{DemoEntry},
			}
		},
		ExcludeExports: []string{"Internals"},
		ScanMode:       types.ScanModeDiscover,
		Manifest: &types.Manifest{
			Groups: map[string]types.GroupOverride{
				"demo-feedback": {Title: "Feedback"},
			},
			ComponentOverrides: map[string]types.ComponentOverride{
				"Button": {
					DefaultProps: map[string]any{"label": "Button", "variant": "contained"},
					SizeOptions:  []string{"small", "medium", "large"},
					BehaviorTags: []string{"action"},
				},
				"Dialog": {GroupID: "demo-feedback", BehaviorTags: []string{"container", "overlay"}},
				"Alert":  {GroupID: "demo-feedback", DefaultProps: map[string]any{"label": "Heads up"}},
				"Input":  {BehaviorTags: []string{"input"}},
			},
		},
		ToCanonicalComponents: Components(DemoID, map[string]types.Adapter{
			"Button": children,
			"Alert":  children,
		}),
		ToGroups: Groups(DemoID, "Demo"),
	}
}

func element(tag, class string) host.ComponentFunc {
	return func(props map[string]any) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			if _, err := fmt.Fprintf(w, "<%s class=\"%s\"%s>", tag, class, attributes(props)); err != nil {
				return err
			}
			if children, ok := props["children"]; ok {
				if _, err := io.WriteString(w, templ.EscapeString(fmt.Sprint(children))); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(w, "</%s>", tag)
			return err
		})
	}
}

func voidElement(tag, class string) host.ComponentFunc {
	return func(props map[string]any) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, "<%s class=\"%s\"%s>", tag, class, attributes(props))
			return err
		})
	}
}

// attributes renders every prop except children as an escaped data
// attribute, in key order.
func attributes(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		if k != "children" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " data-%s=\"%s\"", Kebab(k), templ.EscapeString(fmt.Sprint(props[k])))
	}
	return b.String()
}
