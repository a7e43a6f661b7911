package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/blogimg-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a converted image directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for manifest inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.Read(path)
	if err != nil {
		return err
	}

	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	st := m.Settings
	fmt.Printf("  Target:           %d KB (+%d KB), max %dx%d\n",
		st.TargetKB, st.ToleranceKB, st.MaxWidth, st.MaxHeight)
	fmt.Printf("  Ladder:           %v\n", st.Ladder)
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total images:     %d\n", s.TotalImages)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Compression:      %.1f%% of original\n", ratio)
	}
	if s.Failed > 0 {
		fmt.Printf("  Failed sources:   %d\n", s.Failed)
	}
	fmt.Println()

	// Per-quality breakdown.
	byQuality := map[int]int{}
	for _, img := range m.Images {
		byQuality[img.Quality]++
	}
	var qualities []int
	for q := range byQuality {
		qualities = append(qualities, q)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(qualities)))
	fmt.Println("  Quality breakdown:")
	for _, q := range qualities {
		fmt.Printf("    q=%-3d  %4d images\n", q, byQuality[q])
	}
	fmt.Println()

	lqips := 0
	for _, img := range m.Images {
		if img.LQIP != "" {
			lqips++
		}
	}
	fmt.Printf("  LQIP coverage: %d / %d images\n", lqips, len(m.Images))

	// Warnings.
	limit := int64(st.TargetKB+st.ToleranceKB) * 1024
	var warnings []string
	for key, img := range m.Images {
		if !img.MetTarget {
			warnings = append(warnings, fmt.Sprintf("%q is %s, over the %d KB target",
				key, formatBytes(img.Size), st.TargetKB+st.ToleranceKB))
		} else if limit > 0 && img.Size > limit {
			warnings = append(warnings, fmt.Sprintf("%q marked within target but is %s", key, formatBytes(img.Size)))
		}
	}
	sort.Strings(warnings)
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
