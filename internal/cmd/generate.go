package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aspn-firehose/firehose/internal/codegen/targets"
	"golang.org/x/term"
)

// Generate runs a selection of output targets.
type Generate struct {
	All         bool     `short:"a" help:"Generate all output targets" xor:"selection"`
	Targets     []string `help:"Comma separated targets to generate" sep:"," xor:"selection"`
	Interactive bool     `help:"Select targets one by one" xor:"selection"`
	ListTargets bool     `help:"Show the available targets and exit"`

	ICDDir      string `help:"ICD root holding types/, metadata/ and measurements/" default:"subprojects/aspn-icd-release-2023" type:"path" env:"FIREHOSE_ICD_DIR"`
	ExtraICDDir string `help:"Directory with additional schema files, routed by name prefix" type:"path" env:"FIREHOSE_EXTRA_ICD_DIR"`
	BuildDir    string `short:"b" help:"Build directory" default:"build" type:"path" env:"FIREHOSE_BUILD_DIR"`
	OutputDir   string `short:"O" help:"Output directory, must be inside the build directory" default:"build/output" type:"path" env:"FIREHOSE_OUTPUT_DIR"`
	StagingDir  string `short:"s" help:"Non-generated files copied over the output" default:"staging" type:"path" env:"FIREHOSE_STAGING_DIR"`
	LCMGen      string `name:"lcm-gen" help:"lcm-gen binary; empty skips the lcm-gen step" env:"FIREHOSE_LCM_GEN"`
	FastDDSGen  string `name:"fastddsgen" help:"fastddsgen binary" default:"fastddsgen" env:"FIREHOSE_FASTDDSGEN"`
	Jobs        int    `short:"j" help:"Concurrent targets per level, 0 for twice the CPU count" default:"0"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.run(ctx, logger, os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func (g *Generate) options() targets.Options {
	return targets.Options{
		ICDDir:      g.ICDDir,
		ExtraICDDir: g.ExtraICDDir,
		BuildDir:    g.BuildDir,
		OutputDir:   g.OutputDir,
		StagingDir:  g.StagingDir,
		LCMGen:      g.LCMGen,
		FastDDSGen:  g.FastDDSGen,
	}
}

func (g *Generate) run(ctx context.Context, logger *slog.Logger, in io.Reader, out io.Writer, interactive bool) error {
	opts := g.options()
	set := targets.Firehose(opts, logger)
	if g.ListTargets {
		targets.List(out, set)
		return nil
	}

	selected, err := g.selection(set, in, out, interactive)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		logger.Info("No targets selected")
		return nil
	}

	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(opts.ICDDir); err != nil {
		return fmt.Errorf("icd directory: %w", err)
	}
	for _, dir := range []string{opts.BuildDir, opts.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := targets.CleanOutput(ctx, opts.OutputDir, logger); err != nil {
		return err
	}

	runner := &targets.Runner{Set: set, Logger: logger, Limit: g.Jobs}
	if err := runner.Run(ctx, selected); err != nil {
		return err
	}

	logger.Info("Staging files", "from", opts.StagingDir)
	return targets.Stage(opts.StagingDir, filepath.Clean(opts.OutputDir), logger)
}

func (g *Generate) selection(set *targets.Set, in io.Reader, out io.Writer, interactive bool) ([]*targets.Target, error) {
	switch {
	case g.All:
		return set.All(), nil
	case len(g.Targets) > 0 && !g.Interactive:
		return set.Select(g.Targets)
	case !interactive:
		return nil, errors.New("no targets selected: pass --all or --targets, or run from a terminal to choose interactively")
	default:
		return targets.Prompt(in, out, set)
	}
}
