// Command testract lists and extracts the contents of Bethesda BSA and BA2
// archives.
//
// Archives are given as arguments or discovered with --directory. Without
// --output the matched entries are listed; with it they are extracted into
// the output directory, recreating the archive's folder tree.
package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ozmorph/testract"
)

type config struct {
	directory  string
	extensions []string
	all        bool
	output     string
	header     bool
	verbose    bool
	args       []string
}

func parseFlags() config {
	var cfg config
	pflag.StringVarP(&cfg.directory, "directory", "d", "", "scan a directory for .bsa and .ba2 archives")
	pflag.StringSliceVarP(&cfg.extensions, "extensions", "e", nil, "extract only these file extensions (e.g. nif,dds)")
	pflag.BoolVarP(&cfg.all, "all", "a", false, "extract every file regardless of extension")
	pflag.StringVarP(&cfg.output, "output", "o", "", "extract matched files into this directory")
	pflag.BoolVar(&cfg.header, "header", false, "print archive header details")
	pflag.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging")
	pflag.Parse()
	cfg.args = pflag.Args()
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "testract:", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	paths, err := collectArchives(cfg)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no archives given; pass paths or --directory")
	}

	// No filter means everything, same as --all.
	set := testract.AllExtensions
	if !cfg.all && len(cfg.extensions) > 0 {
		set = testract.Extensions(cfg.extensions...)
	}

	archives := make([]*testract.Archive, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			a, err := testract.Open(path, testract.WithLogger(logger))
			if err != nil {
				return err
			}
			archives[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, a := range archives {
		if cfg.header {
			printHeader(a)
		}
		if cfg.output == "" {
			list(a, set)
			continue
		}
		if err := extract(a, set, cfg.output, logger); err != nil {
			return err
		}
	}
	return nil
}

// collectArchives resolves the archive paths from arguments and the optional
// scan directory.
func collectArchives(cfg config) ([]string, error) {
	paths := append([]string(nil), cfg.args...)
	if cfg.directory == "" {
		return paths, nil
	}

	entries, err := os.ReadDir(cfg.directory)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", cfg.directory, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".bsa", ".ba2":
			paths = append(paths, filepath.Join(cfg.directory, entry.Name()))
		}
	}
	return paths, nil
}

func printHeader(a *testract.Archive) {
	h := a.Header()
	fmt.Printf("%s: %s, %d files", a.Path(), h.Variant, h.FileCount)
	if h.ArchiveFlags != 0 {
		fmt.Printf(", archive flags 0x%x", uint32(h.ArchiveFlags))
	}
	if h.FileFlags != 0 {
		fmt.Printf(", file flags 0x%x", uint16(h.FileFlags))
	}
	fmt.Println()
}

func list(a *testract.Archive, set testract.ExtensionSet) {
	for name := range a.Entries() {
		if set.Match(name) {
			fmt.Println(name)
		}
	}
}

// extract writes every matched entry below outDir, skipping entries whose
// paths would escape it.
func extract(a *testract.Archive, set testract.ExtensionSet, outDir string, logger *slog.Logger) error {
	extracted := 0
	for ex, err := range a.ExtractByExtension(set) {
		if err != nil {
			logger.Warn("skipping entry", "archive", a.Path(), "error", err)
			continue
		}
		if !fs.ValidPath(ex.Path) {
			logger.Warn("skipping entry with unsafe path", "archive", a.Path(), "path", ex.Path)
			continue
		}

		dest := filepath.Join(outDir, filepath.FromSlash(ex.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, ex.Data, 0o644); err != nil {
			return err
		}
		extracted++
	}
	logger.Info("archive extracted", "archive", a.Path(), "files", extracted)
	return nil
}
