// Package header attaches a compressed header image to a Markdown post:
// the image is written under the site's headers directory and the post's
// front matter gets image.path and image.lqip.
package header

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
	"github.com/AnyUserName/blogimg-cli/internal/encoder"
	"github.com/AnyUserName/blogimg-cli/internal/frontmatter"
	"github.com/AnyUserName/blogimg-cli/internal/lqip"
	"github.com/AnyUserName/blogimg-cli/internal/source"
	"go.uber.org/zap"
)

// Attacher writes header images for posts.
type Attacher struct {
	HeadersDir string // filesystem directory for header files
	HeadersURL string // site path the directory is served under
	Options    compress.Options
	Encoder    encoder.Encoder
	Loader     *source.Loader
	Force      bool // replace an existing image entry
	Logger     *zap.Logger
}

// Result describes one attach call.
type Result struct {
	Post     string
	Skipped  bool   // post already had an image
	File     string // written header file
	WebPath  string // value stored in image.path
	Compress *compress.Result
}

// Attach compresses imageRef into a header for the post at postPath.
func (a *Attacher) Attach(ctx context.Context, postPath, imageRef string) (*Result, error) {
	log := a.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loader := a.Loader
	if loader == nil {
		loader = &source.Loader{}
	}

	post, err := frontmatter.Parse(postPath)
	if err != nil {
		return nil, err
	}
	res := &Result{Post: postPath}
	if !a.Force && !post.NeedsImage() {
		log.Debug("post already has an image",
			zap.String("post", postPath), zap.String("image", post.ImagePath()))
		res.Skipped = true
		return res, nil
	}

	src, err := loader.Load(ctx, imageRef)
	if err != nil {
		return nil, err
	}
	img, _, err := source.Decode(src.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imageRef, err)
	}
	cres, err := compress.Compress(img, a.Options, a.Encoder)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", imageRef, err)
	}
	placeholder, err := lqip.Placeholder(img, a.Encoder)
	if err != nil {
		return nil, err
	}

	name := Slug(post) + "." + a.Encoder.Extension()
	file := filepath.Join(a.HeadersDir, name)
	if err := os.MkdirAll(a.HeadersDir, 0o755); err != nil {
		return nil, fmt.Errorf("create headers dir: %w", err)
	}
	if err := os.WriteFile(file, cres.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", file, err)
	}

	webPath := path.Join("/", strings.Trim(a.HeadersURL, "/"), name)
	post.SetImage(webPath, placeholder)
	if err := post.Write(); err != nil {
		return nil, err
	}

	log.Debug("header attached",
		zap.String("post", postPath),
		zap.String("file", file),
		zap.Int("quality", cres.Quality),
		zap.Int("bytes", len(cres.Data)),
	)

	res.File = file
	res.WebPath = webPath
	res.Compress = cres
	return res, nil
}

// Slug names a post's header: its title, else its file name without the
// extension.
func Slug(post *frontmatter.Post) string {
	if t := post.Title(); t != "" {
		return frontmatter.Slugify(t)
	}
	base := filepath.Base(post.Path)
	return frontmatter.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
}
