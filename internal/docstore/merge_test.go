package docstore

import (
	"reflect"
	"testing"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name  string
		base  map[string]any
		patch map[string]any
		want  map[string]any
	}{
		{
			name:  "disjoint fields union",
			base:  map[string]any{"name": "Ann"},
			patch: map[string]any{"goal": "Get fitter"},
			want:  map[string]any{"name": "Ann", "goal": "Get fitter"},
		},
		{
			name:  "scalar overwritten",
			base:  map[string]any{"mood": "Sad", "moodColor": "#42A5F5"},
			patch: map[string]any{"mood": "Happy"},
			want:  map[string]any{"mood": "Happy", "moodColor": "#42A5F5"},
		},
		{
			name:  "nested objects merge",
			base:  map[string]any{"notifications": map[string]any{"push": true, "email": true}},
			patch: map[string]any{"notifications": map[string]any{"email": false}},
			want:  map[string]any{"notifications": map[string]any{"push": true, "email": false}},
		},
		{
			name:  "object replaces scalar",
			base:  map[string]any{"fitnessPlan": "none"},
			patch: map[string]any{"fitnessPlan": map[string]any{"goal": "5k"}},
			want:  map[string]any{"fitnessPlan": map[string]any{"goal": "5k"}},
		},
		{
			name:  "arrays are replaced",
			base:  map[string]any{"tags": []any{"a", "b"}},
			patch: map[string]any{"tags": []any{"c"}},
			want:  map[string]any{"tags": []any{"c"}},
		},
		{
			name:  "empty patch is identity",
			base:  map[string]any{"age": 30.0},
			patch: map[string]any{},
			want:  map[string]any{"age": 30.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeepMerge(tt.base, tt.patch)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("DeepMerge() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDeepMergeDoesNotModifyInputs(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1.0}}
	patch := map[string]any{"a": map[string]any{"y": 2.0}}
	_ = DeepMerge(base, patch)
	if _, ok := base["a"].(map[string]any)["y"]; ok {
		t.Fatalf("base was modified: %#v", base)
	}
}

func TestDeepMergeIdempotent(t *testing.T) {
	base := map[string]any{"name": "Ann", "age": 30.0}
	patch := map[string]any{"goal": "Get fitter", "settings": map[string]any{"push": true}}
	once := DeepMerge(base, patch)
	twice := DeepMerge(once, patch)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent: %#v vs %#v", once, twice)
	}
}

func TestEncodeDecodeOmitsEmpty(t *testing.T) {
	type facet struct {
		Goal string `json:"goal,omitempty"`
		Mood string `json:"mood,omitempty"`
	}
	data, err := Encode(facet{Goal: "Get fitter"})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if _, ok := data["mood"]; ok {
		t.Fatalf("Encode() kept empty field: %#v", data)
	}
	var back facet
	if err := Decode(data, &back); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if back.Goal != "Get fitter" {
		t.Fatalf("Decode() = %+v", back)
	}
}
