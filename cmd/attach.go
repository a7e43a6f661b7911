package cmd

import (
	"fmt"

	"github.com/AnyUserName/blogimg-cli/internal/header"
	"github.com/AnyUserName/blogimg-cli/internal/source"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <post.md> <image|url>",
	Short: "Compress a header image for a post and record it in front matter",
	Long: `Compresses the image into <headers-dir>/<slug>.webp, where slug comes
from the post title (or file name), then sets

  image:
    path: <headers-url>/<slug>.webp
    lqip: data:image/webp;base64,...

in the post's front matter. Posts that already have an image are
left alone unless --force is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runAttach,
}

var attachFlags = map[string]string{
	"headers-dir": "headers_dir",
	"headers-url": "headers_url",
}

func init() {
	f := attachCmd.Flags()
	f.String("headers-dir", "", "directory header files are written to (default assets/img/headers)")
	f.String("headers-url", "", "site path of the headers directory (default /assets/img/headers)")
	f.Bool("force", false, "replace an existing image entry")
	addCompressFlags(attachCmd)
	for k, v := range compressFlags {
		attachFlags[k] = v
	}
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig(cmd, attachFlags, log)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	a := &header.Attacher{
		HeadersDir: cfg.HeadersDir,
		HeadersURL: cfg.HeadersURL,
		Options:    cfg.Options(),
		Encoder:    cfg.Encoder(),
		Loader:     &source.Loader{Timeout: cfg.FetchTimeout},
		Force:      force,
		Logger:     log,
	}
	res, err := a.Attach(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	if res.Skipped {
		fmt.Printf("Skipping (image exists): %s\n", res.Post)
		return nil
	}
	c := res.Compress
	fmt.Printf("Updated image for: %s\n", res.Post)
	fmt.Printf("  %s  %dx%d  q=%d  %.1fKB\n", res.File, c.Width, c.Height, c.Quality, c.SizeKB())
	if !c.MetTarget {
		fmt.Printf("  ! over %dKB target at lowest quality\n", cfg.TargetKB)
	}
	return nil
}
