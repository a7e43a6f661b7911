package cmd

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func loadWithProfile(t *testing.T, name string) (int, *observer.ObservedLogs) {
	t.Helper()
	chdir(t, t.TempDir())

	c := &cobra.Command{Use: "test"}
	addCompressFlags(c)
	if err := c.Flags().Set("profile", name); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	cfg, err := loadConfig(c, compressFlags, zap.New(core))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Profile != name {
		t.Errorf("profile: got %q, want %q", cfg.Profile, name)
	}
	return cfg.TargetKB, logs
}

func TestLoadConfigWarnsOnUnknownProfile(t *testing.T) {
	target, logs := loadWithProfile(t, "stirct")
	if target != 50 {
		t.Errorf("fallback target: got %d", target)
	}
	entries := logs.FilterField(zap.String("profile", "stirct")).All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warning naming the profile, got %v", logs.All())
	}
}

func TestLoadConfigKnownProfileIsQuiet(t *testing.T) {
	target, logs := loadWithProfile(t, "large")
	if target != 60 {
		t.Errorf("target: got %d", target)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected logs: %v", logs.All())
	}
}
