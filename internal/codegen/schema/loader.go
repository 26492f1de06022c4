package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Categories are the ICD subdirectories in scan order.
var Categories = []string{"types", "metadata", "measurements"}

var categoryPrefixes = []struct {
	prefix   string
	category string
}{
	{"measurement_", "measurements"},
	{"metadata_", "metadata"},
	{"type_", "types"},
}

// Loader finds and decodes the schemas of an ICD tree.
type Loader struct {
	// Root holds the types/metadata/measurements directories.
	Root string
	// ExtraDirs are scanned before the categories, so their files win on
	// duplicate basenames. Relative entries are resolved against Root.
	ExtraDirs []string
	// ExtensionDir is searched recursively; files are routed to a category
	// by basename prefix and replace same-named files of that category.
	ExtensionDir string

	Logger *slog.Logger
}

// Files returns the schema paths in generation order: extra dirs, then each
// category, every directory sorted by name, first basename wins.
func (l *Loader) Files() ([]string, error) {
	extensions, err := l.routeExtensions()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var files []string
	add := func(paths []string) {
		for _, p := range paths {
			base := filepath.Base(p)
			if seen[base] {
				continue
			}
			seen[base] = true
			files = append(files, p)
		}
	}

	for _, dir := range l.ExtraDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(l.Root, dir)
		}
		paths, err := yamlFiles(dir)
		if err != nil {
			return nil, err
		}
		add(paths)
	}

	for _, category := range Categories {
		paths, err := yamlFiles(filepath.Join(l.Root, category))
		if err != nil {
			return nil, err
		}
		add(overlay(paths, extensions[category]))
	}
	return files, nil
}

// Load decodes every schema returned by Files.
func (l *Loader) Load() ([]*Schema, error) {
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	schemas := make([]*Schema, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		s.Path = path
		schemas = append(schemas, s)
	}
	l.logger().Info("Loaded schemas", "count", len(schemas), "root", l.Root)
	return schemas, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l *Loader) routeExtensions() (map[string][]string, error) {
	routed := map[string][]string{}
	if l.ExtensionDir == "" {
		return routed, nil
	}
	matches, err := doublestar.Glob(os.DirFS(l.ExtensionDir), "**/*.yaml", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan extension dir: %w", err)
	}
	for _, m := range matches {
		path := filepath.Join(l.ExtensionDir, filepath.FromSlash(m))
		category := CategoryOf(filepath.Base(m))
		if category == "" {
			l.logger().Error("Unknown schema file type, skipping", "file", path)
			continue
		}
		l.logger().Info("Using extension schema", "file", path, "category", category)
		routed[category] = append(routed[category], path)
	}
	return routed, nil
}

// CategoryOf routes a schema file name to its ICD category by prefix.
func CategoryOf(fileName string) string {
	for _, p := range categoryPrefixes {
		if strings.HasPrefix(fileName, p.prefix) {
			return p.category
		}
	}
	return ""
}

func yamlFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "*.yaml", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(dir, m))
	}
	sort.Strings(paths)
	return paths, nil
}

// overlay replaces entries of base with same-named extensions and keeps the
// result sorted by file name.
func overlay(base, extensions []string) []string {
	if len(extensions) == 0 {
		return base
	}
	byName := map[string]string{}
	for _, p := range base {
		byName[filepath.Base(p)] = p
	}
	for _, p := range extensions {
		byName[filepath.Base(p)] = p
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}
