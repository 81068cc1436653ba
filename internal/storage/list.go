package storage

import (
	"context"
	"encoding/json"
)

// GetStringList reads a JSON string list. Missing, unreadable or malformed
// values, including lists with non-string members, read as an empty list.
func GetStringList(ctx context.Context, store Store, key string) []string {
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return []string{}
	}

	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SetStringList writes list as JSON.
func SetStringList(ctx context.Context, store Store, key string, list []string) error {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, data)
}
