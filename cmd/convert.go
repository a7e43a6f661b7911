package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/blogimg-cli/internal/manifest"
	"github.com/AnyUserName/blogimg-cli/internal/pipeline"
	"github.com/AnyUserName/blogimg-cli/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var convertCmd = &cobra.Command{
	Use:   "convert <image|dir|url>...",
	Short: "Convert images to WebP under a target size",
	Long: `Converts local images, directories of images, or image URLs to WebP.

Each image is fitted inside max-width x max-height (never upscaled)
and encoded at each ladder quality in turn until the output is at or
under target-kb + tolerance-kb. If no level fits, the lowest quality
output is kept.

Output goes to <out>/<name>.webp, or next to the source when --out is
not given (the working directory for URLs).`,
	Example: `  blogimg convert image1.jpg image2.png
  blogimg convert https://example.com/image.jpg
  blogimg convert --out assets/img/ photos/
  blogimg convert --target-kb 60 large-image.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

var convertFlags = map[string]string{"lqip": "lqip"}

func init() {
	f := convertCmd.Flags()
	f.StringP("out", "o", "", "output directory (default: next to each source)")
	f.String("manifest", "", "manifest path (default: <out>/"+manifest.FileName+" when --out is set)")
	f.Bool("lqip", false, "compute a blurred placeholder for each output")
	addCompressFlags(convertCmd)
	for k, v := range compressFlags {
		convertFlags[k] = v
	}
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	start := time.Now()
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig(cmd, convertFlags, log)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath == "" && outDir != "" {
		manifestPath = filepath.Join(outDir, manifest.FileName)
	}

	log.Debug("config",
		zap.String("profile", cfg.Profile),
		zap.Int("target_kb", cfg.TargetKB),
		zap.Int("tolerance_kb", cfg.ToleranceKB),
		zap.Ints("ladder", cfg.QualityLadder),
		zap.String("out", outDir),
	)

	manifestDir := ""
	if manifestPath != "" {
		manifestDir = filepath.Dir(manifestPath)
	}
	p := pipeline.New(pipeline.Config{
		Sources:     args,
		OutputDir:   outDir,
		ManifestDir: manifestDir,
		Profile:     cfg.Profile,
		Options:     cfg.Options(),
		Encoder:     cfg.Encoder(),
		Loader:      &source.Loader{Timeout: cfg.FetchTimeout},
		LQIP:        cfg.LQIP,
		Logger:      log,
	})

	m, failures, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	if manifestPath != "" && len(m.Images) > 0 {
		if err := os.MkdirAll(manifestDir, 0o755); err != nil {
			return fmt.Errorf("create manifest dir: %w", err)
		}
		if err := manifest.WriteJSON(m, manifestPath); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}

	printConvertReport(m, failures, time.Since(start))

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d images failed", len(failures), len(failures)+len(m.Images))
	}
	return nil
}

func printConvertReport(m *manifest.Manifest, failures []pipeline.Failure, elapsed time.Duration) {
	keys := make([]string, 0, len(m.Images))
	for k := range m.Images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	for _, k := range keys {
		img := m.Images[k]
		mark := "✓"
		if !img.MetTarget {
			mark = "!"
		}
		fmt.Printf("  %s %-40s %4dx%-4d  q=%-3d %8s\n",
			mark, truncKey(k, 40), img.Width, img.Height, img.Quality, formatBytes(img.Size))
	}

	total := len(m.Images) + len(failures)
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  Converted:   %d/%d images\n", len(m.Images), total)
	if m.Stats.MissedTarget > 0 {
		fmt.Printf("  Over target: %d (kept lowest quality)\n", m.Stats.MissedTarget)
	}
	s := m.Stats
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Size:        %s → %s (%.1f%%)\n",
			formatBytes(s.TotalInputBytes), formatBytes(s.TotalOutputBytes), ratio)
	}
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if len(failures) > 0 {
		fmt.Printf("  Failed:      %d images\n", len(failures))
		for _, f := range failures {
			fmt.Printf("    - %s\n", f.Source)
		}
	}
	fmt.Println(strings.Repeat("=", 60))
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
