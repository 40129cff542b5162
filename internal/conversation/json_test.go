package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no object", "sorry, I can't do that", ""},
		{"empty", "", ""},
		{"closing before opening", "} nothing {", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSONObject(tc.in))
		})
	}
}
