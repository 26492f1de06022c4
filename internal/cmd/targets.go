package cmd

import (
	"log/slog"
	"os"

	"github.com/aspn-firehose/firehose/internal/codegen/targets"
)

// Targets prints the output targets and their dependencies.
type Targets struct{}

func (t *Targets) Run(logger *slog.Logger) error {
	targets.List(os.Stdout, targets.Firehose(targets.Options{}, logger))
	return nil
}
