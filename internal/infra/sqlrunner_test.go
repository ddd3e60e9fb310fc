package infra

import (
	"errors"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		marker  string
		body    string
		wantErr bool
	}{
		{
			name:   "valid marker",
			query:  "--sql 0b3c1f3e-2a51-4c8e-9a0d-5d2f6c7e8a91\nselect 1",
			marker: "0b3c1f3e-2a51-4c8e-9a0d-5d2f6c7e8a91",
			body:   "select 1",
		},
		{
			name:   "leading whitespace",
			query:  "\n  --sql 0b3c1f3e-2a51-4c8e-9a0d-5d2f6c7e8a91\n  select 1\n",
			marker: "0b3c1f3e-2a51-4c8e-9a0d-5d2f6c7e8a91",
			body:   "select 1",
		},
		{
			name:    "missing marker",
			query:   "select 1",
			wantErr: true,
		},
		{
			name:    "uppercase uuid rejected",
			query:   "--sql 0B3C1F3E-2A51-4C8E-9A0D-5D2F6C7E8A91\nselect 1",
			wantErr: true,
		},
		{
			name:    "marker without body",
			query:   "--sql 0b3c1f3e-2a51-4c8e-9a0d-5d2f6c7e8a91",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := ExtractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ExtractMarker() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractMarker() unexpected error: %v", err)
			}
			if marker != tc.marker || body != tc.body {
				t.Fatalf("ExtractMarker() = (%q, %q), want (%q, %q)", marker, body, tc.marker, tc.body)
			}
		})
	}
}

func TestErrorRowScan(t *testing.T) {
	row := errorRow{err: ErrMissingMarker}
	var v int
	if err := row.Scan(&v); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Scan() = %v, want ErrMissingMarker", err)
	}
}
