package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "strings pass through",
			raw:  `{"title": "Q3 Report", "year": "2024"}`,
			want: map[string]string{"title": "Q3 Report", "year": "2024"},
		},
		{
			name: "scalars formatted, nested dropped",
			raw:  `{"year": 2024, "archived": false, "tags": ["a"], "owner": {"name": "pat"}}`,
			want: map[string]string{"year": "2024", "archived": "false"},
		},
		{
			name: "invalid json",
			raw:  `{broken`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw []byte
			if tt.raw != "" {
				raw = []byte(tt.raw)
			}
			assert.Equal(t, tt.want, decodeMetadata(raw))
		})
	}
}

func TestDecodeMetadataEmpty(t *testing.T) {
	assert.Nil(t, decodeMetadata(nil))
}
