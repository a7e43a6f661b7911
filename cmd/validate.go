package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/blogimg-cli/internal/compress"
	"github.com/AnyUserName/blogimg-cli/internal/hasher"
	"github.com/AnyUserName/blogimg-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a blogimg manifest and check referenced files",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	manifestPath := args[0]

	m, err := manifest.Read(manifestPath)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(manifestPath)
	errors := validateManifest(m, baseDir)

	if len(errors) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d images — all files present\n", m.Stats.TotalImages)
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errors))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	st := m.Settings
	opts := compress.Options{
		TargetKB: st.TargetKB, ToleranceKB: st.ToleranceKB,
		MaxWidth: st.MaxWidth, MaxHeight: st.MaxHeight, Ladder: st.Ladder,
	}
	if err := opts.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("settings: %v", err))
	}
	inLadder := map[int]bool{}
	for _, q := range st.Ladder {
		inLadder[q] = true
	}

	keys := make([]string, 0, len(m.Images))
	for k := range m.Images {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		img := m.Images[key]
		if img.Source == "" {
			errs = append(errs, fmt.Sprintf("image %q: missing source", key))
		}
		if img.Width <= 0 || img.Height <= 0 {
			errs = append(errs, fmt.Sprintf("image %q: invalid dimensions %dx%d", key, img.Width, img.Height))
		}
		if img.Width > st.MaxWidth || img.Height > st.MaxHeight {
			errs = append(errs, fmt.Sprintf("image %q: %dx%d exceeds %dx%d",
				key, img.Width, img.Height, st.MaxWidth, st.MaxHeight))
		}
		if len(st.Ladder) > 0 && !inLadder[img.Quality] {
			errs = append(errs, fmt.Sprintf("image %q: quality %d not in ladder", key, img.Quality))
		}
		if img.MetTarget && img.Size > int64(opts.LimitBytes()) {
			errs = append(errs, fmt.Sprintf("image %q: marked within target but %d bytes", key, img.Size))
		}

		fullPath := key
		if !filepath.IsAbs(fullPath) {
			fullPath = filepath.Join(baseDir, filepath.FromSlash(key))
		}
		data, err := os.ReadFile(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("image %q: file not found", key))
			continue
		}
		if int64(len(data)) != img.Size {
			errs = append(errs, fmt.Sprintf("image %q: size mismatch: manifest=%d, disk=%d",
				key, img.Size, len(data)))
		}
		if img.Hash != "" && hasher.ContentHash(data, len(img.Hash)) != img.Hash {
			errs = append(errs, fmt.Sprintf("image %q: content hash mismatch", key))
		}
	}

	// Verify stats consistency.
	if m.Stats.TotalImages != len(m.Images) {
		errs = append(errs, fmt.Sprintf("stats.total_images mismatch: %d != %d", m.Stats.TotalImages, len(m.Images)))
	}

	return errs
}
