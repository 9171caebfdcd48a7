// Package expr expands ${env.KEY} references in configuration values.
package expr

import (
	"os"
	"strings"
	"unicode"
)

// LookupFunc resolves an environment key.
type LookupFunc func(key string) string

// ExpandEnv replaces ${env.KEY} with the value of environment variable KEY.
func ExpandEnv(value string) string {
	return Expand(value, os.Getenv)
}

// Expand replaces ${env.KEY} using lookup.  Malformed references are kept
// literally and scanning resumes right after the prefix.
func Expand(value string, lookup LookupFunc) string {
	const prefix = "${env."
	if !strings.Contains(value, prefix) {
		return value
	}
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], prefix)
		if idx < 0 {
			b.WriteString(value[i:])
			break
		}
		b.WriteString(value[i : i+idx])
		startKey := i + idx + len(prefix)
		endKey := strings.IndexByte(value[startKey:], '}')
		if endKey < 0 {
			b.WriteString(value[i+idx:])
			break
		}
		key := value[startKey : startKey+endKey]
		if !validKey(key) {
			b.WriteString(value[i+idx : startKey])
			i = startKey
			continue
		}
		b.WriteString(lookup(key))
		i = startKey + endKey + 1
	}
	return b.String()
}

func validKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
