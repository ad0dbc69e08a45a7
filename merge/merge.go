// Package merge combines the per-resource content of each locale into one
// object per locale.
package merge

import (
	"sort"

	"github.com/minios-linux/txsync/locale"
)

// Resource is the fetched content of one resource, keyed by locale.
type Resource map[locale.Code]map[string]any

// Files is the merged content per locale, ready to be written.
type Files map[locale.Code]map[string]any

// Locales merges resources in order. For every locale the top-level keys
// of each resource are copied over the accumulated content, so a later
// resource wins on a key collision. A locale absent from a later resource
// keeps what earlier resources contributed. Nested values are shared with
// the input, not copied.
func Locales(resources []Resource) Files {
	files := make(Files)

	for _, res := range resources {
		for code, content := range res {
			target, ok := files[code]
			if !ok {
				target = make(map[string]any, len(content))
				files[code] = target
			}
			for k, v := range content {
				target[k] = v
			}
		}
	}

	return files
}

// Codes returns the merged locale codes in ascending order.
func (f Files) Codes() []locale.Code {
	codes := make([]locale.Code, 0, len(f))
	for code := range f {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
