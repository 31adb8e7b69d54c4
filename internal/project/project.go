// Package project resolves the conventional on-disk layout of a video
// project: a named directory under the library with input/, edit/, proxy/,
// and output/ subdirectories that the workflow steps hand files through.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Subdirectory names, fixed by convention.
const (
	InputDirName  = "input"
	EditDirName   = "edit"
	ProxyDirName  = "proxy"
	OutputDirName = "output"
)

// FactorFileName records the proxy shrink factor inside the proxy directory.
const FactorFileName = "factor.txt"

// DefaultProxyFactor applies when no factor file exists.
const DefaultProxyFactor = 0.5

// Layout locates a project's directories under the library root.
type Layout struct {
	Name string
	Root string
}

// NewLayout validates the project name and resolves its root directory.
func NewLayout(libraryDir, name string) (Layout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Layout{}, errors.New("project name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return Layout{}, fmt.Errorf("invalid project name %q", name)
	}
	if strings.TrimSpace(libraryDir) == "" {
		return Layout{}, errors.New("library directory is required")
	}
	return Layout{Name: name, Root: filepath.Join(libraryDir, name)}, nil
}

// InputDir returns the raw footage directory.
func (l Layout) InputDir() string { return filepath.Join(l.Root, InputDirName) }

// EditDir returns the full-resolution editable media directory.
func (l Layout) EditDir() string { return filepath.Join(l.Root, EditDirName) }

// ProxyDir returns the low-resolution proxy media directory.
func (l Layout) ProxyDir() string { return filepath.Join(l.Root, ProxyDirName) }

// OutputDir returns the rendered output directory.
func (l Layout) OutputDir() string { return filepath.Join(l.Root, OutputDirName) }

// Ensure creates the given project directories.
func (l Layout) Ensure(dirs ...string) error {
	if len(dirs) == 0 {
		dirs = []string{l.InputDir(), l.EditDir(), l.ProxyDir(), l.OutputDir()}
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project directory %q: %w", dir, err)
		}
	}
	return nil
}

// FactorPath returns the location of the proxy factor file.
func (l Layout) FactorPath() string {
	return filepath.Join(l.ProxyDir(), FactorFileName)
}

// ReadProxyFactor returns the recorded proxy shrink factor, or the default
// when the factor file is missing or unreadable.
func (l Layout) ReadProxyFactor() float64 {
	data, err := os.ReadFile(l.FactorPath())
	if err != nil {
		return DefaultProxyFactor
	}
	factor, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil || factor <= 0 || factor > 1 {
		return DefaultProxyFactor
	}
	return factor
}

// WriteProxyFactor records the proxy shrink factor used by a conversion so
// later renders can undo the scaling.
func (l Layout) WriteProxyFactor(factor float64) error {
	if err := l.Ensure(l.ProxyDir()); err != nil {
		return err
	}
	data := strconv.FormatFloat(factor, 'g', -1, 64) + "\n"
	if err := os.WriteFile(l.FactorPath(), []byte(data), 0o644); err != nil {
		return fmt.Errorf("write proxy factor: %w", err)
	}
	return nil
}

// InputFiles walks the input directory and returns every regular file.
func (l Layout) InputFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.InputDir(), func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk input dir: %w", err)
	}
	return files, nil
}
