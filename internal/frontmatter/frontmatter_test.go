package frontmatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Post {
	t.Helper()
	p, err := ParseBytes("post.md", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

func TestParse_SplitsFrontMatter(t *testing.T) {
	p := mustParse(t, "---\ntitle: Hello World\ntags: [go]\n---\n\n\nBody text.\n")
	if p.Title() != "Hello World" {
		t.Errorf("title: got %q", p.Title())
	}
	if p.Body != "Body text.\n" {
		t.Errorf("body: got %q", p.Body)
	}
}

func TestParse_NoFrontMatter(t *testing.T) {
	p := mustParse(t, "# Just markdown\n")
	if p.Title() != "" {
		t.Errorf("title: got %q", p.Title())
	}
	if p.Body != "# Just markdown\n" {
		t.Errorf("body: got %q", p.Body)
	}
	if !p.NeedsImage() {
		t.Error("post without front matter should need an image")
	}
}

func TestParse_EmptyFrontMatter(t *testing.T) {
	p := mustParse(t, "---\n---\nbody\n")
	if !p.NeedsImage() {
		t.Error("empty front matter should need an image")
	}
}

func TestParse_RejectsNonMapping(t *testing.T) {
	if _, err := ParseBytes("x.md", []byte("---\n- a\n- b\n---\nbody")); err == nil {
		t.Fatal("expected error for list front matter")
	}
}

func TestNeedsImage(t *testing.T) {
	cases := map[string]bool{
		"title: x\n":                           true,
		"image: /assets/a.webp\n":              false,
		"image:\n  path: /assets/a.webp\n":     false,
		"image:\n  path: \"\"\n":               true,
		"image:\n  alt: missing path\n":        true,
		"image:\n":                             true,
		"image: 42\n":                          true,
		"image: [a, b]\n":                      true,
		"image:\n  path: /a.webp\n  lqip: x\n": false,
	}
	for fm, want := range cases {
		p := mustParse(t, "---\n"+fm+"---\nbody\n")
		if got := p.NeedsImage(); got != want {
			t.Errorf("NeedsImage(%q) = %v, want %v", fm, got, want)
		}
	}
}

func TestSetImage_PreservesOrder(t *testing.T) {
	p := mustParse(t, "---\ntitle: Post\ndate: 2025-01-02 10:00:00 +0000\ncategories: [Blog]\n---\n\nHello.\n")
	p.SetImage("/assets/img/headers/post.webp", "data:image/webp;base64,AAAA")

	out, err := p.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := string(out)
	want := `---
title: Post
date: 2025-01-02 10:00:00 +0000
categories: [Blog]
image:
  path: /assets/img/headers/post.webp
  lqip: data:image/webp;base64,AAAA
---

Hello.
`
	if got != want {
		t.Errorf("render:\n%s\nwant:\n%s", got, want)
	}
	if p.NeedsImage() {
		t.Error("still needs image after SetImage")
	}
	if p.ImagePath() != "/assets/img/headers/post.webp" {
		t.Errorf("image path: got %q", p.ImagePath())
	}
}

func TestSetImage_ReplacesExisting(t *testing.T) {
	p := mustParse(t, "---\nimage:\n  alt: old\ntitle: T\n---\nx\n")
	p.SetImage("/a.webp", "")

	out, err := p.Render()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), "---\nimage:\n  path: /a.webp\ntitle: T\n---\n") {
		t.Errorf("render: got %q", out)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025-01-01-post.md")
	if err := os.WriteFile(path, []byte("---\ntitle: Round Trip\n---\nBody\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	p.SetImage("/h.webp", "data:x")
	if err := p.Write(); err != nil {
		t.Fatal(err)
	}

	again, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Title() != "Round Trip" || again.ImagePath() != "/h.webp" || again.NeedsImage() {
		t.Errorf("reparsed post lost data: title=%q image=%q", again.Title(), again.ImagePath())
	}
	if again.Body != "Body\n" {
		t.Errorf("body: got %q", again.Body)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":            "hello-world",
		"  Go 1.24: What's New?  ": "go-1-24-what-s-new",
		"---":                      "post",
		"":                         "post",
		"Kubernetes & Helm":        "kubernetes-helm",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
