package scanner

import (
	"context"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/types"
)

func component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error { return nil })
}

func TestScan_DiscoverWithIncludeAndExclude(t *testing.T) {
	module := host.Module{
		"Button":  component(),
		"Form":    host.Compound{Members: map[string]any{"Item": component()}},
		"helper":  func() {},
		"version": "5.0.0",
	}

	paths := Scan(module, Options{
		IncludePaths:   []string{"Form.Item"},
		ExcludeExports: []string{"version"},
		Discover:       true,
	})

	assert.ElementsMatch(t, []string{"Button", "Form.Item"}, paths)
	assert.NotContains(t, paths, "helper")
	assert.NotContains(t, paths, "version")
}

func TestScan_ExcludeAppliesPerLevel(t *testing.T) {
	module := host.Module{
		"Dropdown": &host.Compound{
			Component: component(),
			Members:   map[string]any{"Item": component(), "Menu": component()},
		},
		"Item": component(),
	}

	paths := Scan(module, Options{ExcludeExports: []string{"Item"}, Discover: true})

	assert.Contains(t, paths, "Dropdown")
	assert.Contains(t, paths, "Dropdown.Menu")
	assert.NotContains(t, paths, "Dropdown.Item")
	assert.NotContains(t, paths, "Item")
}

func TestScan_TopLevelNotExcludedByNestedName(t *testing.T) {
	module := host.Module{
		"Item": component(),
		"List": host.Compound{Component: component(), Members: map[string]any{"Item": component()}},
	}

	paths := Scan(module, Options{Discover: true})

	assert.Equal(t, []string{"Item", "List", "List.Item"}, paths)
}

func TestScan_IncludeOnly(t *testing.T) {
	module := host.Module{
		"Button": component(),
		"Card":   component(),
		"Form":   host.Compound{Members: map[string]any{"Item": component()}},
	}

	paths := Scan(module, Options{
		IncludePaths: []string{"Button", "Form.Item", "Missing", "Form.Missing"},
	})

	assert.Equal(t, []string{"Button", "Form.Item"}, paths)
}

func TestScan_FiltersUnrenderableIncludes(t *testing.T) {
	var nilFunc func()
	module := host.Module{
		"Theme":   "dark",
		"Nothing": nil,
		"NilFunc": nilFunc,
		"Icons":   []string{"a"},
	}

	paths := Scan(module, Options{
		IncludePaths: []string{"Theme", "Nothing", "NilFunc", "Icons"},
		Discover:     true,
	})

	assert.Empty(t, paths)
}

func TestScan_DeduplicatesIncludedAndDiscovered(t *testing.T) {
	module := host.Module{"Button": component()}

	paths := Scan(module, Options{IncludePaths: []string{"Button"}, Discover: true})

	assert.Equal(t, []string{"Button"}, paths)
}

func TestScan_NilModule(t *testing.T) {
	assert.Nil(t, Scan(nil, Options{Discover: true}))
}

func TestScan_OnlyOneLevelDeep(t *testing.T) {
	module := host.Module{
		"Table": host.Compound{
			Component: component(),
			Members: map[string]any{
				"Row": host.Compound{
					Component: component(),
					Members:   map[string]any{"Cell": component()},
				},
			},
		},
	}

	paths := Scan(module, Options{Discover: true})

	assert.Equal(t, []string{"Table", "Table.Row"}, paths)
}

func TestOptionsFor(t *testing.T) {
	opts := OptionsFor(types.LibraryProfile{
		IncludePaths:   []string{"A.B"},
		ExcludeExports: []string{"x"},
		ScanMode:       types.ScanModeIncludeOnly,
	})
	assert.False(t, opts.Discover)
	assert.Equal(t, []string{"A.B"}, opts.IncludePaths)

	assert.True(t, OptionsFor(types.LibraryProfile{}).Discover)
}

func TestScan_NamespacesAreNeverPaths(t *testing.T) {
	module := host.Module{
		"Layout": map[string]any{"Stack": component()},
		"Form":   &host.Compound{Members: map[string]any{"Item": component()}},
		"Button": component(),
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "discover",
			opts: Options{Discover: true},
			want: []string{"Button", "Form.Item", "Layout.Stack"},
		},
		{
			name: "include only",
			opts: Options{IncludePaths: []string{"Layout", "Layout.Stack", "Form", "Form.Item"}},
			want: []string{"Layout.Stack", "Form.Item"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scan(module, tt.opts))
		})
	}
}
