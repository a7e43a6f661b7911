package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/AnyUserName/blogimg-cli/internal/config"
	"github.com/AnyUserName/blogimg-cli/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "blogimg",
	Short: "Size-bounded WebP images for a static blog",
	Long: `blogimg — turns photos and generated art into small WebP files
for blog headers and thumbnails.

Each image is fitted inside a bounding box and encoded down a
quality ladder until it fits the target size. Header images can be
attached to Markdown posts together with an inline blurred placeholder.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command until ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ./"+config.DefaultPath+" when present)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"blogimg %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// newLogger writes console logs to stderr: debug and up with --verbose,
// warnings and errors otherwise.
func newLogger() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core).Named("blogimg")
}

// compressFlags maps shared flag names to config keys.
var compressFlags = map[string]string{
	"profile":      "profile",
	"target-kb":    "target_kb",
	"tolerance-kb": "tolerance_kb",
	"max-width":    "max_width",
	"max-height":   "max_height",
	"ladder":       "quality_ladder",
}

func addCompressFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("profile", "p", "", "compression profile (blog-header, strict, thumbnail, large)")
	f.IntP("target-kb", "t", 0, "target file size in KB (default from profile)")
	f.Int("tolerance-kb", 0, "KB of slack over the target (default from profile)")
	f.Int("max-width", 0, "maximum output width (default from profile)")
	f.Int("max-height", 0, "maximum output height (default from profile)")
	f.IntSlice("ladder", nil, "descending quality levels to try, e.g. 85,70,50,30")
}

// loadConfig resolves file and environment config with every changed
// flag in keys applied on top. An unknown profile name is logged: its
// settings fall back to the default profile.
func loadConfig(cmd *cobra.Command, keys map[string]string, log *zap.Logger) (*config.Config, error) {
	overrides := map[string]any{}
	for name, key := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		v, err := flagValue(cmd.Flags(), f)
		if err != nil {
			return nil, fmt.Errorf("flag --%s: %w", name, err)
		}
		overrides[key] = v
	}
	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		return nil, err
	}
	if !profile.Known(cfg.Profile) {
		log.Warn("unknown profile, using "+profile.DefaultName+" settings",
			zap.String("profile", cfg.Profile),
			zap.Strings("known", profile.Names()),
		)
	}
	return cfg, nil
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) (any, error) {
	switch f.Value.Type() {
	case "int":
		return fs.GetInt(f.Name)
	case "intSlice":
		return fs.GetIntSlice(f.Name)
	case "bool":
		return fs.GetBool(f.Name)
	case "duration":
		return fs.GetDuration(f.Name)
	default:
		return f.Value.String(), nil
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
