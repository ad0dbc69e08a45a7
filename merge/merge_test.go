package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/txsync/locale"
)

func TestLocalesLastWriterWins(t *testing.T) {
	a := Resource{"fr": {"k": "a"}}
	b := Resource{"fr": {"k": "b"}}

	got := Locales([]Resource{a, b})
	want := Files{"fr": {"k": "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Locales() mismatch (-want +got):\n%s", diff)
	}

	got = Locales([]Resource{b, a})
	want = Files{"fr": {"k": "a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Locales() reversed mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalesUnionAndShallowMerge(t *testing.T) {
	core := Resource{
		"de": {"modes": map[string]any{"add_point": "Punkt"}, "shared": "core"},
		"vi": {"modes": map[string]any{"add_point": "Điểm"}},
	}
	presets := Resource{
		"de": {"presets": map[string]any{"fields": map[string]any{}}, "shared": map[string]any{"nested": "presets"}},
		"ja": {"presets": map[string]any{}},
	}

	got := Locales([]Resource{core, presets})
	want := Files{
		"de": {
			"modes":   map[string]any{"add_point": "Punkt"},
			"presets": map[string]any{"fields": map[string]any{}},
			// Top-level keys are replaced whole, not deep-merged.
			"shared": map[string]any{"nested": "presets"},
		},
		"vi": {"modes": map[string]any{"add_point": "Điểm"}},
		"ja": {"presets": map[string]any{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Locales() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]locale.Code{"de", "ja", "vi"}, got.Codes()); diff != "" {
		t.Fatalf("Codes() mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalesDoesNotMutateInput(t *testing.T) {
	first := Resource{"fr": {"a": "1"}}
	second := Resource{"fr": {"b": "2"}}

	Locales([]Resource{first, second})

	if len(first["fr"]) != 1 || len(second["fr"]) != 1 {
		t.Fatalf("inputs were mutated: %v %v", first, second)
	}
}

func TestLocalesEmpty(t *testing.T) {
	if got := Locales(nil); len(got) != 0 {
		t.Fatalf("Locales(nil) = %v, want empty", got)
	}
}
