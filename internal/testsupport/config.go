// Package testsupport holds helpers shared by package tests: temp-dir backed
// configurations, queue store factories, and stubbed external binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"moviola/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.LibraryDir = filepath.Join(base, "library")
	cfgVal.LogDir = filepath.Join(base, "logs")
	cfgVal.ScriptsDir = filepath.Join(base, "scripts")
	cfgVal.APIBind = "127.0.0.1:0"
	for _, dir := range []string{cfgVal.LibraryDir, cfgVal.LogDir, cfgVal.ScriptsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRenderMode sets the default render mode on the test config.
func WithRenderMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Mode = mode
	}
}

// WithConvertFactor overrides the default proxy factor on the test config.
func WithConvertFactor(factor float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.Factor = factor
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			tools := b.cfg.Tools
			names = []string{
				tools.Rsync,
				tools.Transcoder,
				tools.PitiviRender,
				tools.Cinelerra,
				tools.ProxyChange,
				tools.Uploader,
				tools.Archiver,
				tools.Slideshow,
			}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.LibraryDir)
}
