package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLists(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blank line inserted before list after text",
			in:   "Some intro text:\n- first\n- second",
			want: "Some intro text:\n\n- first\n- second",
		},
		{
			name: "ordered list after text",
			in:   "Steps:\n1. one\n2. two",
			want: "Steps:\n\n1. one\n2. two",
		},
		{
			name: "already separated list untouched",
			in:   "Text.\n\n- item",
			want: "Text.\n\n- item",
		},
		{
			name: "consecutive list items untouched",
			in:   "- one\n- two\n- three",
			want: "- one\n- two\n- three",
		},
		{
			name: "blockquote list gets blockquote continuation",
			in:   "> Note this:\n> - quoted item",
			want: "> Note this:\n>\n> - quoted item",
		},
		{
			name: "fenced code untouched",
			in:   "```go\nx := 1\n- not a list\n```",
			want: "```go\nx := 1\n- not a list\n```",
		},
		{
			name: "tilde fence untouched",
			in:   "text:\n~~~\n- not a list\n~~~",
			want: "text:\n~~~\n- not a list\n~~~",
		},
		{
			name: "list after fence close gets separator",
			in:   "```\ncode\n```\ntext:\n- item",
			want: "```\ncode\n```\ntext:\n\n- item",
		},
		{
			name: "list at start of document untouched",
			in:   "- item\ntext after",
			want: "- item\ntext after",
		},
		{
			name: "plus and star markers",
			in:   "intro\n* a\nintro2\n+ b",
			want: "intro\n\n* a\nintro2\n\n+ b",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLists(tt.in))
		})
	}
}

func TestNormalizeListsIdempotent(t *testing.T) {
	inputs := []string{
		"Some intro text:\n- first\n- second",
		"> Note:\n> - quoted\n> - items",
		"Steps:\n1. one\n\ntext\n2. oops",
		"```\n- fenced\n```\ntext:\n- real",
	}
	for _, in := range inputs {
		once := NormalizeLists(in)
		twice := NormalizeLists(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}
