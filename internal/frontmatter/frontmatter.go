// Package frontmatter reads and writes YAML front matter blocks on markdown
// documents. Serialization is deterministic (sorted keys) so repeated builds
// produce byte-identical pages.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Parse splits content into front matter fields and the remaining body.
// Content without a leading front matter block returns nil fields and the
// content unchanged. A malformed block (no closing delimiter, invalid YAML)
// is treated as absent rather than failing the page.
func Parse(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, delimiter+"\n") {
		return nil, content
	}

	rest := content[len(delimiter)+1:]

	var fmYAML, body string
	if end := strings.Index(rest, "\n"+delimiter+"\n"); end >= 0 {
		fmYAML = rest[:end]
		body = rest[end+len(delimiter)+2:]
	} else if trimmed, ok := strings.CutSuffix(rest, "\n"+delimiter); ok {
		// Block closes at end of file
		fmYAML = trimmed
	} else {
		return nil, content
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(fmYAML), &fields); err != nil {
		return nil, content
	}
	// A single blank line between block and body is a serialization
	// artifact, not content.
	return fields, strings.TrimPrefix(body, "\n")
}

// Compose prepends a front matter block with the given fields to body.
// Empty fields return the body unchanged.
func Compose(fields map[string]any, body string) (string, error) {
	if len(fields) == 0 {
		return body, nil
	}

	encoded, err := serialize(fields)
	if err != nil {
		return "", fmt.Errorf("serialize front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.Write(encoded)
	b.WriteString(delimiter)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimLeft(body, "\n"))
	return b.String(), nil
}

// serialize encodes fields as YAML with recursively sorted keys.
func serialize(fields map[string]any) ([]byte, error) {
	node, err := nodeFromMap(fields)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nodeFromMap(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode, err := nodeFromAny(m[k])
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, keyNode, valNode)
	}
	return n, nil
}

func nodeFromAny(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case map[string]any:
		return nodeFromMap(val)
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}
