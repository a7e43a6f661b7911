// Package frontmatter reads and rewrites the YAML front matter block of a
// Markdown post, keeping the order of keys it does not touch.
package frontmatter

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Post is a parsed Markdown file.
type Post struct {
	Path string
	Body string

	meta *yaml.Node // mapping node
}

// Parse reads and splits the post at path.
func Parse(path string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read post: %w", err)
	}
	return ParseBytes(path, data)
}

// ParseBytes splits data into front matter and body. A file without a
// leading --- block has empty front matter and is all body.
func ParseBytes(path string, data []byte) (*Post, error) {
	p := &Post{
		Path: path,
		Body: string(data),
		meta: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"},
	}
	if !bytes.HasPrefix(data, []byte(delimiter)) {
		return p, nil
	}
	parts := bytes.SplitN(data, []byte(delimiter), 3)
	if len(parts) < 3 {
		return p, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(parts[1], &doc); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if len(doc.Content) > 0 {
		m := doc.Content[0]
		switch {
		case m.Kind == yaml.MappingNode:
			p.meta = m
		case m.Kind == yaml.ScalarNode && m.Tag == "!!null":
		default:
			return nil, fmt.Errorf("front matter is not a mapping")
		}
	}
	p.Body = strings.TrimLeft(string(parts[2]), "\n")
	return p, nil
}

// lookup returns the value node for key, or nil.
func (p *Post) lookup(key string) *yaml.Node {
	for i := 0; i+1 < len(p.meta.Content); i += 2 {
		if p.meta.Content[i].Value == key {
			return p.meta.Content[i+1]
		}
	}
	return nil
}

// Get returns the string value of a top-level scalar key.
func (p *Post) Get(key string) string {
	if v := p.lookup(key); v != nil && v.Kind == yaml.ScalarNode && v.Tag != "!!null" {
		return v.Value
	}
	return ""
}

// Title returns the title key, or "" when absent.
func (p *Post) Title() string {
	return p.Get("title")
}

// NeedsImage reports whether the post lacks a usable header image: image
// missing, a mapping without a non-empty path, or any non-string value.
func (p *Post) NeedsImage() bool {
	v := p.lookup("image")
	if v == nil {
		return true
	}
	switch v.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(v.Content); i += 2 {
			if v.Content[i].Value == "path" {
				pv := v.Content[i+1]
				return pv.Kind != yaml.ScalarNode || pv.Tag == "!!null" || pv.Value == ""
			}
		}
		return true
	case yaml.ScalarNode:
		return v.Tag != "!!str"
	default:
		return true
	}
}

// ImagePath returns image.path, or the image string itself.
func (p *Post) ImagePath() string {
	v := p.lookup("image")
	if v == nil {
		return ""
	}
	if v.Kind == yaml.ScalarNode && v.Tag == "!!str" {
		return v.Value
	}
	if v.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(v.Content); i += 2 {
			if v.Content[i].Value == "path" {
				return v.Content[i+1].Value
			}
		}
	}
	return ""
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// SetImage replaces the image key with {path, lqip}. An empty lqip is
// omitted. A new image key is appended after the existing keys.
func (p *Post) SetImage(path, lqip string) {
	img := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	img.Content = append(img.Content, scalar("path"), scalar(path))
	if lqip != "" {
		img.Content = append(img.Content, scalar("lqip"), scalar(lqip))
	}

	for i := 0; i+1 < len(p.meta.Content); i += 2 {
		if p.meta.Content[i].Value == "image" {
			p.meta.Content[i+1] = img
			return
		}
	}
	p.meta.Content = append(p.meta.Content, scalar("image"), img)
}

// Render returns the post as ---\n<yaml>---\n\n<body>\n.
func (p *Post) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	if len(p.meta.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p.meta); err != nil {
			return nil, fmt.Errorf("failed to marshal front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal front matter: %w", err)
		}
	}
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(strings.TrimSpace(p.Body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Write renders the post back to its path.
func (p *Post) Write() error {
	data, err := p.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write post: %w", err)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases text and joins alphanumeric runs with hyphens.
// Text with no alphanumerics becomes "post".
func Slugify(text string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if s == "" {
		return "post"
	}
	return s
}
