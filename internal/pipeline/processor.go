package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
	"github.com/AnyUserName/blogimg-cli/internal/hasher"
	"github.com/AnyUserName/blogimg-cli/internal/lqip"
	"github.com/AnyUserName/blogimg-cli/internal/manifest"
	"github.com/AnyUserName/blogimg-cli/internal/source"
	"go.uber.org/zap"
)

// output is one written file.
type output struct {
	key   string // manifest key
	path  string // absolute path on disk
	image manifest.Image
}

// processImage handles a single source: load, decode, compress, write.
func (p *Pipeline) processImage(ctx context.Context, ref string) (output, error) {
	src, err := p.cfg.Loader.Load(ctx, ref)
	if err != nil {
		return output{}, err
	}

	img, format, err := source.Decode(src.Data)
	if err != nil {
		return output{}, fmt.Errorf("%s: %w", ref, err)
	}

	res, err := compress.Compress(img, p.cfg.Options, p.cfg.Encoder)
	if err != nil {
		return output{}, fmt.Errorf("compress %s: %w", ref, err)
	}
	for _, a := range res.Attempts {
		if a.Err != nil {
			p.log.Debug("quality level failed",
				zap.String("source", ref), zap.Int("quality", a.Quality), zap.Error(a.Err))
		}
	}

	outPath, err := p.outputPath(src)
	if err != nil {
		return output{}, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return output{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return output{}, fmt.Errorf("write %s: %w", outPath, err)
	}

	entry := manifest.Image{
		Source:       ref,
		SourceFormat: format,
		Width:        res.Width,
		Height:       res.Height,
		Quality:      res.Quality,
		Size:         int64(len(res.Data)),
		OriginalSize: int64(len(src.Data)),
		Hash:         hasher.ContentHash(res.Data, 16),
		MetTarget:    res.MetTarget,
	}

	if p.cfg.LQIP {
		uri, err := lqip.Placeholder(img, p.cfg.Encoder)
		if err != nil {
			// The image itself is written; only the preview is lost.
			p.log.Warn("placeholder failed", zap.String("source", ref), zap.Error(err))
		} else {
			entry.LQIP = uri
		}
	}

	return output{key: p.manifestKey(outPath), path: outPath, image: entry}, nil
}

// outputDir resolves where a source's output goes: the output directory,
// the source's own directory, or the working directory for URLs.
func (p *Pipeline) outputDir(srcDir string) (string, error) {
	dir := p.cfg.OutputDir
	if dir == "" {
		dir = srcDir
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	return abs, nil
}

// collisionName is the n-th fallback file name for a stem already taken in
// this run: <stem>-<hash>, then <stem>-<hash>-2, <stem>-<hash>-3 ...
func collisionName(stem, ref, ext string, n int) string {
	name := stem + "-" + hasher.StringHash(ref, 6)
	if n > 1 {
		name += "-" + strconv.Itoa(n)
	}
	return name + ext
}

// outputPath picks <dir>/<stem>.<ext>. A source mapping to a path already
// written in this run by another source gets the first free collision name.
func (p *Pipeline) outputPath(src *source.Image) (string, error) {
	dir, err := p.outputDir(src.Dir)
	if err != nil {
		return "", err
	}

	ext := "." + p.cfg.Encoder.Extension()
	path := filepath.Join(dir, src.Stem+ext)
	for n := 1; ; n++ {
		prev, ok := p.claimed[path]
		if !ok || prev == src.Ref {
			break
		}
		path = filepath.Join(dir, collisionName(src.Stem, src.Ref, ext, n))
	}
	p.claimed[path] = src.Ref
	return path, nil
}

// dropOwnOutputs removes local sources that another source in the batch
// writes to, so re-running over a directory does not convert the files a
// previous run produced there. Sources already in the output format never
// displace each other.
func (p *Pipeline) dropOwnOutputs(sources []string) []string {
	ext := "." + p.cfg.Encoder.Extension()

	planned := make(map[string]bool)
	for _, ref := range sources {
		var dir, stem string
		if source.IsURL(ref) {
			stem = source.URLStem(ref)
		} else {
			if strings.EqualFold(filepath.Ext(ref), ext) {
				continue
			}
			abs, err := filepath.Abs(ref)
			if err != nil {
				continue
			}
			base := filepath.Base(abs)
			dir, stem = filepath.Dir(abs), strings.TrimSuffix(base, filepath.Ext(base))
		}
		out, err := p.outputDir(dir)
		if err != nil {
			continue
		}
		planned[filepath.Join(out, stem+ext)] = true
		planned[filepath.Join(out, collisionName(stem, ref, ext, 1))] = true
	}

	kept := make([]string, 0, len(sources))
	for _, ref := range sources {
		if !source.IsURL(ref) {
			if abs, err := filepath.Abs(ref); err == nil && planned[abs] {
				p.log.Debug("skipping output of another source", zap.String("source", ref))
				continue
			}
		}
		kept = append(kept, ref)
	}
	return kept
}

// manifestKey is path relative to ManifestDir, slash separated.
func (p *Pipeline) manifestKey(path string) string {
	if p.cfg.ManifestDir != "" {
		if base, err := filepath.Abs(p.cfg.ManifestDir); err == nil {
			if rel, err := filepath.Rel(base, path); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(path)
}
