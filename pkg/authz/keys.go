package authz

import (
	"fmt"
	"strings"
	"unicode"
)

// Permission keys are dotted "module.action" strings, e.g. "users.edit".

// SlugSegment normalizes a human name into a key segment: lowercase,
// alphanumerics preserved, runs of anything else collapsed to single
// underscores.
func SlugSegment(name string) string {
	var b strings.Builder
	lastUnderscore := true // suppress leading underscore
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// JoinKey builds a dotted permission key from a module and an action segment.
func JoinKey(module, action string) string {
	return SlugSegment(module) + "." + SlugSegment(action)
}

// SplitKey splits a dotted key into its module and action parts. Keys without
// a dot are treated as module-less actions.
func SplitKey(key string) (module, action string) {
	if idx := strings.Index(key, "."); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return "", key
}

// UniqueKey derives a key from name and module, appending a numeric suffix
// until taken reports it free. Deterministic for a given existing-key set.
func UniqueKey(name, module string, taken func(string) bool) string {
	base := JoinKey(module, name)
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
