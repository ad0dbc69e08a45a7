package localefile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/minios-linux/txsync/locale"
)

func TestWriteWrapsContentUnderCode(t *testing.T) {
	dir := t.TempDir()
	content := map[string]any{
		"presets": map[string]any{"b": "<b>", "a": "x & y"},
	}

	changed, err := Write(dir, "pt-BR", content)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !changed {
		t.Fatalf("first write should report a change")
	}

	data, err := os.ReadFile(filepath.Join(dir, "pt-BR.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := `{"pt-BR":{"presets":{"a":"x & y","b":"<b>"}}}`
	if string(data) != want {
		t.Fatalf("file = %s, want %s", data, want)
	}

	got, err := Read(dir, "pt-BR")
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !reflect.DeepEqual(got, content) {
		t.Fatalf("Read = %#v, want %#v", got, content)
	}
}

func TestWriteReportsUnchanged(t *testing.T) {
	dir := t.TempDir()
	content := map[string]any{"k": "v"}

	if _, err := Write(dir, "fr", content); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	changed, err := Write(dir, "fr", content)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if changed {
		t.Fatalf("identical rewrite should not report a change")
	}

	changed, err = Write(dir, "fr", map[string]any{"k": "w"})
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !changed {
		t.Fatalf("different content should report a change")
	}
}

func TestWriteCreatesDirectoryAndLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist", "translations")

	if _, err := Write(dir, "de", nil); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "de.json" {
		t.Fatalf("unexpected directory content: %v", entries)
	}
}

func TestReadMissingKey(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fr.json"), []byte(`{"de":{}}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Read(dir, "fr"); err == nil {
		t.Fatal("expected error for missing top-level key")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.json", "fr.json", "de.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	want := []locale.Code{"de", "fr"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}
