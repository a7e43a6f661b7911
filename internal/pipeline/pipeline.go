// Package pipeline converts a batch of image sources to size-bounded WebP
// files, one at a time, and records the results in a manifest.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
	"github.com/AnyUserName/blogimg-cli/internal/encoder"
	"github.com/AnyUserName/blogimg-cli/internal/manifest"
	"github.com/AnyUserName/blogimg-cli/internal/source"
	"go.uber.org/zap"
)

// Config holds all parameters for a convert run.
type Config struct {
	Sources     []string // files, directories or http(s) URLs
	OutputDir   string   // empty: next to each file, working directory for URLs
	ManifestDir string   // manifest keys are relative to this directory
	Profile     string
	Options     compress.Options
	Encoder     encoder.Encoder
	Loader      *source.Loader
	LQIP        bool // compute a placeholder for every output
	Logger      *zap.Logger
}

// Failure is a source that could not be converted.
type Failure struct {
	Source string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// Pipeline runs conversions sequentially.
type Pipeline struct {
	cfg Config
	log *zap.Logger

	// claimed tracks output paths written in this run.
	claimed map[string]string
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Loader == nil {
		cfg.Loader = &source.Loader{}
	}
	return &Pipeline{
		cfg:     cfg,
		log:     cfg.Logger,
		claimed: make(map[string]string),
	}
}

// Run converts every source and returns the manifest of successful
// outputs plus the per-source failures. A failing source does not stop the
// batch; the returned error is reserved for setup problems and
// cancellation.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, []Failure, error) {
	if err := p.cfg.Options.Validate(); err != nil {
		return nil, nil, err
	}
	if p.cfg.Encoder == nil || !p.cfg.Encoder.Available() {
		return nil, nil, fmt.Errorf("%w: no usable encoder", encoder.ErrUnavailable)
	}

	sources, err := ExpandSources(p.cfg.Sources, p.cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	sources = p.dropOwnOutputs(sources)
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no images to convert")
	}
	p.log.Debug("sources resolved", zap.Int("count", len(sources)))

	if p.cfg.OutputDir != "" {
		if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	opts := p.cfg.Options
	m := manifest.New(p.cfg.Profile, manifest.Settings{
		TargetKB:    opts.TargetKB,
		ToleranceKB: opts.ToleranceKB,
		MaxWidth:    opts.MaxWidth,
		MaxHeight:   opts.MaxHeight,
		Ladder:      append([]int(nil), opts.Ladder...),
	})

	var failures []Failure
	for _, ref := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		p.log.Debug("processing", zap.String("source", ref))
		out, err := p.processImage(ctx, ref)
		if err != nil {
			p.log.Warn("convert failed", zap.String("source", ref), zap.Error(err))
			failures = append(failures, Failure{Source: ref, Err: err})
			continue
		}
		m.Images[out.key] = out.image
		p.log.Debug("converted",
			zap.String("source", ref),
			zap.String("output", out.path),
			zap.Int("quality", out.image.Quality),
			zap.Int64("bytes", out.image.Size),
			zap.Bool("met_target", out.image.MetTarget),
		)
	}

	m.Stats.Failed = len(failures)
	m.ComputeStats()
	return m, failures, nil
}
