// Package config loads blogimg settings.
//
// Precedence (highest to lowest):
//  1. CLI flags (applied by the caller)
//  2. Environment variables prefixed with BLOGIMG_ (BLOGIMG_TARGET_KB -> target_kb)
//  3. YAML config file (blogimg.yaml in the working directory by default)
//  4. The selected profile's preset values
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
	"github.com/AnyUserName/blogimg-cli/internal/encoder"
	"github.com/AnyUserName/blogimg-cli/internal/profile"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultPath is read when present and no explicit path is given.
	DefaultPath = "blogimg.yaml"

	// EnvPrefix marks environment variables read as config keys.
	EnvPrefix = "BLOGIMG_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config is the resolved tool configuration.
type Config struct {
	Profile       string        `koanf:"profile"`
	TargetKB      int           `koanf:"target_kb"`
	ToleranceKB   int           `koanf:"tolerance_kb"`
	MaxWidth      int           `koanf:"max_width"`
	MaxHeight     int           `koanf:"max_height"`
	QualityLadder []int         `koanf:"quality_ladder"`
	CWebPPath     string        `koanf:"cwebp_path"`
	WebPMethod    int           `koanf:"webp_method"`
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	HeadersDir    string        `koanf:"headers_dir"`
	HeadersURL    string        `koanf:"headers_url"`
	LQIP          bool          `koanf:"lqip"`
}

// defaults returns the lowest-precedence values for the named profile.
func defaults(name string) map[string]any {
	p := profile.Get(name)
	return map[string]any{
		"profile":        p.Name,
		"target_kb":      p.TargetKB,
		"tolerance_kb":   p.ToleranceKB,
		"max_width":      p.MaxWidth,
		"max_height":     p.MaxHeight,
		"quality_ladder": p.Ladder,
		"cwebp_path":     "",
		"webp_method":    encoder.DefaultMethod,
		"fetch_timeout":  "20s",
		"headers_dir":    "assets/img/headers",
		"headers_url":    "/assets/img/headers",
		"lqip":           false,
	}
}

// Default returns the configuration of the default profile with no file or
// environment overrides.
func Default() *Config {
	cfg, err := build(koanf.New("."), "")
	if err != nil {
		// Built-in presets always decode.
		panic(err)
	}
	return cfg
}

// Load reads the YAML file at path, then environment variables, then
// overrides (config keys set from CLI flags). An empty path reads
// DefaultPath if it exists; an explicit path must exist.
func Load(path string, overrides map[string]any) (*Config, error) {
	src := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	content, err := readConfigFile(path)
	switch {
	case err == nil:
		if err := src.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := src.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	for key, v := range overrides {
		if err := src.Set(key, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}

	cfg, err := build(src, src.String("profile"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// build layers src over the profile defaults and decodes the result.
func build(src *koanf.Koanf, profileName string) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults(profileName) {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}
	if err := k.Merge(src); err != nil {
		return nil, fmt.Errorf("merge config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return io.ReadAll(f)
}

// envValue maps BLOGIMG_TARGET_KB=60 to target_kb=60. Comma separated
// ladders become int slices.
func envValue(key, value string) (string, any) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if name != "quality_ladder" {
		return name, value
	}
	parts := strings.Split(value, ",")
	ladder := make([]int, 0, len(parts))
	for _, p := range parts {
		q, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			// Left as a string so decoding reports it.
			return name, value
		}
		ladder = append(ladder, q)
	}
	return name, ladder
}

// Options returns the compressor options this config describes.
func (c *Config) Options() compress.Options {
	return compress.Options{
		TargetKB:    c.TargetKB,
		ToleranceKB: c.ToleranceKB,
		MaxWidth:    c.MaxWidth,
		MaxHeight:   c.MaxHeight,
		Ladder:      append([]int(nil), c.QualityLadder...),
	}
}

// Validate checks that the configuration can drive a compression run.
func (c *Config) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if c.WebPMethod < 0 || c.WebPMethod > 6 {
		return fmt.Errorf("webp_method must be 0-6, got %d", c.WebPMethod)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	return nil
}

// Encoder returns the WebP encoder this config selects.
func (c *Config) Encoder() *encoder.WebPEncoder {
	return encoder.NewWebP(c.CWebPPath, c.WebPMethod)
}
