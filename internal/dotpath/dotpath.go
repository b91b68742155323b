// Package dotpath implements dot-notation access into a JSON document.
//
// Paths are series of keys separated by dots ("a.b.c"). A literal dot
// inside a key can be escaped with a backslash. All functions operate on
// the serialized document and never parse it into an intermediate tree.
package dotpath

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Get returns the value at path. The result's Exists method distinguishes
// a missing key from a key holding JSON null. Traversal through a
// non-object intermediate value yields a non-existent result.
func Get(doc []byte, path string) gjson.Result {
	return gjson.GetBytes(doc, path)
}

// Has reports whether every segment along path resolves to an existing
// member. A key holding JSON null is present.
func Has(doc []byte, path string) bool {
	return gjson.GetBytes(doc, path).Exists()
}

// Set assigns value at path and returns the updated document. Missing
// intermediate levels are created as objects; an existing non-object
// intermediate is overwritten with a fresh object.
func Set(doc []byte, path string, value any) ([]byte, error) {
	doc = clearScalarIntermediates(doc, path)
	return sjson.SetBytes(doc, path, value)
}

// SetRaw assigns pre-serialized JSON at path. Same traversal rules as Set.
func SetRaw(doc []byte, path string, raw []byte) ([]byte, error) {
	doc = clearScalarIntermediates(doc, path)
	return sjson.SetRawBytes(doc, path, raw)
}

// Delete removes the member at path and returns the updated document.
// Deleting an absent path is not an error.
func Delete(doc []byte, path string) ([]byte, error) {
	if !Has(doc, path) {
		return doc, nil
	}
	return sjson.DeleteBytes(doc, path)
}

// Escape backslash-escapes dots so key is addressed as a single literal
// segment rather than a nested path.
func Escape(key string) string {
	if !strings.Contains(key, ".") {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if r == '.' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// clearScalarIntermediates removes the first intermediate segment that
// holds a non-object value, so a subsequent set recreates the levels
// beneath it as objects.
func clearScalarIntermediates(doc []byte, path string) []byte {
	for _, prefix := range prefixes(path) {
		res := gjson.GetBytes(doc, prefix)
		if !res.Exists() {
			break
		}
		if !res.IsObject() {
			doc, _ = sjson.DeleteBytes(doc, prefix)
			break
		}
	}
	return doc
}

// prefixes returns every proper prefix of path split on unescaped dots.
// For "a.b.c" it returns ["a", "a.b"].
func prefixes(path string) []string {
	var out []string
	escaped := false
	for i := 0; i < len(path); i++ {
		switch {
		case escaped:
			escaped = false
		case path[i] == '\\':
			escaped = true
		case path[i] == '.':
			out = append(out, path[:i])
		}
	}
	return out
}
