package generator

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/classify"
	cgen "github.com/aspn-firehose/firehose/internal/codegen/generator/c"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/cpp"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/dds"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/lcm"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/marshal"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/py"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/ros"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/translations"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
)

// Generator runs one backend over an ICD tree.
type Generator struct {
	icdDir    string
	extraDirs []string
	extDir    string
	logger    *slog.Logger
}

// Factory builds a fresh backend. Backends are single use.
type Factory func(logger *slog.Logger) backend.Backend

var generators = map[string]Factory{
	cgen.Format:            func(l *slog.Logger) backend.Backend { return cgen.New(l) },
	cpp.Format:             func(l *slog.Logger) backend.Backend { return cpp.New(l) },
	dds.Format:             func(l *slog.Logger) backend.Backend { return dds.New(l) },
	lcm.Format:             func(l *slog.Logger) backend.Backend { return lcm.New(l) },
	translations.FormatLCM: func(l *slog.Logger) backend.Backend { return translations.NewLCM(l) },
	ros.Format:             func(l *slog.Logger) backend.Backend { return ros.New(l) },
	translations.FormatROS: func(l *slog.Logger) backend.Backend { return translations.NewROS(l) },
	py.Format:              func(l *slog.Logger) backend.Backend { return py.New(l) },
	marshal.Format:         func(l *slog.Logger) backend.Backend { return marshal.New(l) },
}

// needsMessageType lists the formats whose header carries the downcast enum.
var needsMessageType = map[string]bool{
	cgen.Format: true,
	cpp.Format:  true,
}

// Formats returns the registered output formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(generators))
	for k := range generators {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// New returns a generator for the ICD tree at icdDir. extraDirs are scanned
// before the ICD categories; extDir is searched recursively for overrides.
func New(icdDir string, extraDirs []string, extDir string, logger *slog.Logger) *Generator {
	return &Generator{
		icdDir:    icdDir,
		extraDirs: extraDirs,
		extDir:    extDir,
		logger:    logger,
	}
}

// GenerateFormat loads the schemas and renders them with the named backend below outputDir.
func (g *Generator) GenerateFormat(format, outputDir string) error {
	factory, ok := generators[format]
	if !ok {
		return fmt.Errorf("unsupported format '%s' (supported: %v)", format, Formats())
	}

	g.logger.Info("Generating", "format", format, "icd", g.icdDir)

	if _, err := os.Stat(g.icdDir); err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	loader := &schema.Loader{
		Root:         g.icdDir,
		ExtraDirs:    g.extraDirs,
		ExtensionDir: g.extDir,
		Logger:       g.logger,
	}
	schemas, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	if needsMessageType[format] {
		schema.InjectMessageType(schemas)
	}

	b := factory(g.logger)
	if err := b.SetOutputRootFolder(outputDir); err != nil {
		return fmt.Errorf("prepare %s output directory: %w", format, err)
	}
	if err := classify.Convert(b, schemas, g.logger); err != nil {
		return err
	}

	g.logger.Info("Generation complete", "format", format, "output", outputDir, "schemas", len(schemas))
	return nil
}
