package types

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/palette/internal/host"
)

// AdapterKind selects the prop mapping strategy of an adapter.
type AdapterKind string

const (
	// AdapterProps passes props through, applying renames.
	AdapterProps AdapterKind = "props"
	// AdapterChildren moves a label prop into children before passing props.
	AdapterChildren AdapterKind = "children"
	// AdapterStatic ignores props entirely.
	AdapterStatic AdapterKind = "static"
)

// Adapter is the uniform rendering contract between the editor's generic
// renderer and a third-party component.
type Adapter struct {
	Kind AdapterKind `json:"kind" yaml:"kind"`
	// Rename maps editor prop names to component prop names
	Rename map[string]string `json:"rename,omitempty" yaml:"rename,omitempty"`
	// ChildrenProp is the prop moved into children by AdapterChildren.
	// Defaults to "label".
	ChildrenProp string `json:"childrenProp,omitempty" yaml:"childrenProp,omitempty"`
}

// DefaultAdapter is used when a canonicalizer does not choose one.
var DefaultAdapter = Adapter{Kind: AdapterProps}

// MapProps applies the adapter's prop mapping. The input is never modified.
func (a Adapter) MapProps(props map[string]any) map[string]any {
	if a.Kind == AdapterStatic {
		return nil
	}

	out := make(map[string]any, len(props))
	for k, v := range props {
		if renamed, ok := a.Rename[k]; ok && renamed != "" {
			k = renamed
		}
		out[k] = v
	}

	if a.Kind == AdapterChildren {
		from := a.ChildrenProp
		if from == "" {
			from = "label"
		}
		if v, ok := out[from]; ok {
			if _, taken := out["children"]; !taken {
				out["children"] = v
			}
			delete(out, from)
		}
	}

	return out
}

// Bind produces a templ component for value with props mapped through the
// adapter. Values that cannot be rendered directly, such as pure namespaces,
// return an error.
func (a Adapter) Bind(value any, props map[string]any) (templ.Component, error) {
	own := host.Own(value)
	if own == nil {
		return nil, fmt.Errorf("export has no renderable value of its own")
	}

	switch c := own.(type) {
	case host.ComponentFunc:
		mapped := a.MapProps(props)
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			component := c(mapped)
			if component == nil {
				return nil
			}
			return component.Render(ctx, w)
		}), nil
	case func(map[string]any) templ.Component:
		return a.Bind(host.ComponentFunc(c), props)
	case templ.Component:
		return c, nil
	default:
		return nil, fmt.Errorf("export of type %T cannot be bound to props", own)
	}
}
