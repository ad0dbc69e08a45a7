// Package localefile reads and writes the JSON artifacts produced by a sync.
//
// Each locale file wraps its content under the locale's own code:
//
//	{"pt-BR":{"presets":{"fields":{"name":{"label":"Nome"}}}}}
//
// Files are written compactly, without HTML escaping, through a temporary
// file and a rename so a reader never sees a partial artifact.
package localefile

import (
	"bytes"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/txsync/locale"
)

// IndexName is the file name of the coverage index.
const IndexName = "index.json"

// Path returns the path of a locale's file in dir.
func Path(dir string, code locale.Code) string {
	return filepath.Join(dir, string(code)+".json")
}

// Write writes content for code as {"<code>": content}. It reports whether
// the bytes on disk changed.
func Write(dir string, code locale.Code, content map[string]any) (changed bool, err error) {
	if content == nil {
		content = map[string]any{}
	}
	return WriteJSON(Path(dir, code), map[string]any{string(code): content})
}

// Read parses a locale file and returns its content.
func Read(dir string, code locale.Code) (map[string]any, error) {
	path := Path(dir, code)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	content, ok := doc[string(code)]
	if !ok {
		return nil, fmt.Errorf("%s: missing top-level key %q", path, code)
	}
	return content, nil
}

// List returns the locale codes that have a file in dir, sorted. The
// coverage index is not a locale file and is skipped.
func List(dir string) ([]locale.Code, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var codes []locale.Code
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == IndexName || !strings.HasSuffix(name, ".json") {
			continue
		}
		codes = append(codes, locale.Code(strings.TrimSuffix(name, ".json")))
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, nil
}

// WriteJSON encodes v and replaces path with it. It reports whether the
// previous file had different content.
func WriteJSON(path string, v any) (changed bool, err error) {
	data, err := Marshal(v)
	if err != nil {
		return false, err
	}

	changed = true
	if old, err := os.ReadFile(path); err == nil && md5.Sum(old) == md5.Sum(data) {
		changed = false
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("replacing %s: %w", path, err)
	}
	return changed, nil
}

// Marshal encodes v as compact JSON with sorted object keys and without
// escaping <, > and &, which occur in translated text.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
