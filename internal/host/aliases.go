package host

import (
	"sort"
	"sync"
)

// DefaultAliases maps the shared framework imports a module must resolve
// against the host instead of bundling its own copy.
var DefaultAliases = map[string]string{
	"github.com/a-h/templ":         "host",
	"github.com/a-h/templ/runtime": "host",
}

var (
	aliasMu sync.RWMutex
	aliases map[string]string
)

// InstallAliases installs the process-wide alias table if none exists yet.
// When a table is already present it is left untouched and the keys whose
// targets disagree with expected are returned, sorted.
func InstallAliases(expected map[string]string) []string {
	aliasMu.Lock()
	defer aliasMu.Unlock()

	if aliases == nil {
		aliases = make(map[string]string, len(expected))
		for k, v := range expected {
			aliases[k] = v
		}
		return nil
	}

	var conflicts []string
	for k, v := range expected {
		if got, ok := aliases[k]; !ok || got != v {
			conflicts = append(conflicts, k)
		}
	}
	sort.Strings(conflicts)

	return conflicts
}

// Aliases returns a copy of the installed alias table, or nil when nothing
// has been installed.
func Aliases() map[string]string {
	aliasMu.RLock()
	defer aliasMu.RUnlock()

	if aliases == nil {
		return nil
	}
	out := make(map[string]string, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

// ResetAliases drops the installed table. Modules that already resolved
// against it keep their references.
func ResetAliases() {
	aliasMu.Lock()
	defer aliasMu.Unlock()
	aliases = nil
}
