package testract

import (
	"path"
	"strings"
)

// ExtensionSet selects entries by file extension for bulk extraction.
// The zero value matches nothing.
type ExtensionSet struct {
	all  bool
	exts []string
}

// NoExtensions matches no entries.
var NoExtensions = ExtensionSet{}

// AllExtensions matches every entry.
var AllExtensions = ExtensionSet{all: true}

// Extensions builds a set matching the given extensions, compared without
// case sensitivity. A leading dot is optional: "nif" and ".nif" are the
// same extension.
func Extensions(exts ...string) ExtensionSet {
	set := ExtensionSet{exts: make([]string, 0, len(exts))}
	for _, ext := range exts {
		set.exts = append(set.exts, strings.TrimPrefix(ext, "."))
	}
	return set
}

// Match reports whether the entry path's extension is in the set. Paths
// without an extension match only AllExtensions.
func (s ExtensionSet) Match(name string) bool {
	if s.all {
		return true
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		return false
	}
	for _, want := range s.exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
