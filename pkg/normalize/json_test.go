package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"name": {"value": "Yaman"}}`,
			want:     `{"name": {"value": "Yaman"}}`,
		},
		{
			name:     "markdown fenced",
			response: "Here is the data:\n```json\n{\"name\": {\"value\": \"Yaman\"}}\n```\nLet me know if you need more.",
			want:     `{"name": {"value": "Yaman"}}`,
		},
		{
			name:     "think tags stripped",
			response: "<think>The user wants raag data {not this}</think>{\"name\": {\"value\": \"Bhairavi\"}}",
			want:     `{"name": {"value": "Bhairavi"}}`,
		},
		{
			name:     "braces inside string values",
			response: `{"description": {"value": "uses {curly} notation"}}`,
			want:     `{"description": {"value": "uses {curly} notation"}}`,
		},
		{
			name:     "escaped quotes inside values",
			response: `{"name": {"value": "the \"king\" of raags"}}`,
			want:     `{"name": {"value": "the \"king\" of raags"}}`,
		},
		{
			name:     "leading prose",
			response: `Sure! {"matras": {"value": "16"}}`,
			want:     `{"matras": {"value": "16"}}`,
		},
		{
			name:     "no json at all",
			response: "I could not find any information about this taal.",
			wantErr:  true,
		},
		{
			name:     "unbalanced braces",
			response: `{"name": {"value": "Yaman"`,
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsParseError(err), "extraction failures must be ParseError")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
