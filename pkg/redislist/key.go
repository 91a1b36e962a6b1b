package redislist

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies one collection list in Redis.
type Key struct {
	// Entity is the collection name (e.g., "albums")
	Entity string

	// Scope narrows the collection (e.g., {"library": "main"})
	Scope map[string]string
}

// String generates a deterministic Redis key.
// Format: catalog:entity:scope1=val1:scope2=val2
//
// Example:
//
//	catalog:albums:library=main
func (k Key) String() string {
	parts := []string{"catalog"}

	entity := strings.Trim(k.Entity, ":/ ")
	if entity != "" {
		parts = append(parts, entity)
	}

	// Scope keys sorted for determinism
	if len(k.Scope) > 0 {
		scopeKeys := make([]string, 0, len(k.Scope))
		for key := range k.Scope {
			scopeKeys = append(scopeKeys, key)
		}
		sort.Strings(scopeKeys)

		for _, key := range scopeKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Scope[key]))
		}
	}

	return strings.Join(parts, ":")
}
