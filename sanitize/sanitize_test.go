package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// parse builds content from JSON so tests get the same map types a fetch
// produces.
func parse(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestLocale(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "markup-only preset terms remove the entry",
			in:   `{"presets":{"presets":{"shop":{"terms":"<foo>"}}}}`,
			want: `{"presets":{"presets":{}}}`,
		},
		{
			name: "markup-only field terms remove the entry",
			in:   `{"presets":{"fields":{"name":{"terms":"[bar]"}}}}`,
			want: `{"presets":{"fields":{}}}`,
		},
		{
			name: "entry with other fields keeps them",
			in:   `{"presets":{"presets":{"shop":{"name":"Loja","terms":"  <foo>  "}}}}`,
			want: `{"presets":{"presets":{"shop":{"name":"Loja"}}}}`,
		},
		{
			name: "remaining text is kept and trimmed",
			in:   `{"presets":{"presets":{"shop":{"terms":"<foo>keep "}}}}`,
			want: `{"presets":{"presets":{"shop":{"terms":"keep"}}}}`,
		},
		{
			name: "one greedy match from first to last delimiter",
			in:   `{"presets":{"fields":{"a":{"terms":"keep [x] and [y] too"}}}}`,
			want: `{"presets":{"fields":{"a":{"terms":"keep  too"}}}}`,
		},
		{
			name: "match spans line breaks",
			in:   `{"presets":{"presets":{"a":{"terms":"one\n<a>\ntwo <b>"}}}}`,
			want: `{"presets":{"presets":{"a":{"terms":"one"}}}}`,
		},
		{
			name: "markup-only value with inner text removes the entry",
			in:   `{"presets":{"presets":{"a":{"terms":"<a> middle <b>"}}}}`,
			want: `{"presets":{"presets":{}}}`,
		},
		{
			name: "angle brackets are not stripped from field terms",
			in:   `{"presets":{"fields":{"a":{"terms":"<x>"}}}}`,
			want: `{"presets":{"fields":{"a":{"terms":"<x>"}}}}`,
		},
		{
			name: "empty terms are deleted",
			in:   `{"presets":{"presets":{"a":{"terms":"","name":"A"}}}}`,
			want: `{"presets":{"presets":{"a":{"name":"A"}}}}`,
		},
		{
			name: "non-string terms and non-mapping entries are left alone",
			in:   `{"presets":{"presets":{"a":{"terms":["<x>"]},"b":"<y>"}}}`,
			want: `{"presets":{"presets":{"a":{"terms":["<x>"]},"b":"<y>"}}}`,
		},
		{
			name: "content without presets is untouched",
			in:   `{"core":{"terms":"<x>"}}`,
			want: `{"core":{"terms":"<x>"}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parse(t, tc.in)
			Locale(got)
			if diff := cmp.Diff(parse(t, tc.want), got); diff != "" {
				t.Fatalf("Locale() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLocaleIdempotent(t *testing.T) {
	inputs := []string{
		`{"presets":{"presets":{"a":{"terms":"<x> <y>z"},"b":{"terms":"<<q>>r"}},"fields":{"c":{"terms":"[[a]] b]"},"d":{"terms":"[x]","label":"D"}}}}`,
		`{"presets":{"presets":{"a":{"terms":"<x>y<z>w"}},"fields":{"c":{"terms":"[a]b[c]d"}}}}`,
		`{"presets":{"presets":{"a":{"terms":"plain, words"}}}}`,
		`{"presets":{"presets":{"a":{"terms":"x\n<a>\ny<b>z"}},"fields":{"f":{"terms":"[a]\nkeep,[b]\n"}}}}`,
	}

	for _, in := range inputs {
		once := parse(t, in)
		Locale(once)

		twice := parse(t, in)
		Locale(twice)
		Locale(twice)

		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("second pass changed %s (-once +twice):\n%s", in, diff)
		}
	}
}
