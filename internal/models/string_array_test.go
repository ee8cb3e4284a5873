package models

import (
	"reflect"
	"testing"
)

func TestStringArrayValue(t *testing.T) {
	var nilTags StringArray
	v, err := nilTags.Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil list must serialize to [], got %v (%v)", v, err)
	}

	v, err = StringArray{"fantasy", "go"}.Value()
	if err != nil || v != `["fantasy","go"]` {
		t.Fatalf("unexpected serialization: %v (%v)", v, err)
	}
}

func TestStringArrayScan(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"json array", `["fantasy","go"]`, []string{"fantasy", "go"}},
		{"null", nil, []string{}},
		{"empty string", "", []string{}},
		{"plain string", "fantasy", []string{"fantasy"}},
		{"comma separated", "fantasy, go ,", []string{"fantasy", "go"}},
		{"quoted comma separated", `"fantasy,go"`, []string{"fantasy", "go"}},
		{"bytes", []byte(`["go"]`), []string{"go"}},
	}
	for _, tc := range cases {
		var tags StringArray
		if err := tags.Scan(tc.in); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !reflect.DeepEqual([]string(tags), tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, tags, tc.want)
		}
	}

	var tags StringArray
	if err := tags.Scan(42); err == nil {
		t.Fatal("expected an error for unsupported types")
	}
}
