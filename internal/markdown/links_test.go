package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	body := []byte(`# Title

A [chapter link](chapter-01/) and an ![image](images/flow.png).

Auto link: <https://example.com>

[ref]: other-section/
`)

	links := ExtractLinks(body)

	var dests []string
	for _, l := range links {
		dests = append(dests, l.Destination)
	}
	assert.Contains(t, dests, "chapter-01/")
	assert.Contains(t, dests, "images/flow.png")
	assert.Contains(t, dests, "https://example.com")
	assert.Contains(t, dests, "other-section/")
}

func TestExtractLinksEmptyBody(t *testing.T) {
	links := ExtractLinks(nil)
	require.NotNil(t, links)
	assert.Empty(t, links)
}

func TestExtractLinksKinds(t *testing.T) {
	links := ExtractLinks([]byte("[a](x.md) ![b](y.png)"))
	kinds := map[LinkKind]int{}
	for _, l := range links {
		kinds[l.Kind]++
	}
	assert.Equal(t, 1, kinds[LinkKindInline])
	assert.Equal(t, 1, kinds[LinkKindImage])
}
