package cmd

import (
	"log/slog"

	"github.com/aspn-firehose/firehose/internal/codegen/generator"
)

// Convert runs a single backend over one ICD tree.
type Convert struct {
	ICDDir    string   `arg:"" name:"icd-dir" help:"ICD root holding types/, metadata/ and measurements/" type:"existingdir"`
	Output    string   `short:"d" help:"Output directory" required:"" type:"path" env:"FIREHOSE_CONVERT_OUTPUT"`
	Format    string   `short:"o" help:"Output format: c, cpp, dds, lcm, lcmtranslations, marshal_lcm_c, py, ros, rostranslations" required:"" enum:"c,cpp,dds,lcm,lcmtranslations,marshal_lcm_c,py,ros,rostranslations" env:"FIREHOSE_CONVERT_FORMAT"`
	ExtraDir  []string `help:"Additional schema directories, scanned before the ICD categories" type:"path"`
	Extension string   `help:"Directory searched recursively for schemas that override ICD files" type:"path"`
}

// Run is called by Kong when the convert command is executed.
func (c *Convert) Run(logger *slog.Logger) error {
	logger.Info("Starting conversion", "icd", c.ICDDir, "format", c.Format, "output", c.Output)
	return generator.New(c.ICDDir, c.ExtraDir, c.Extension, logger).GenerateFormat(c.Format, c.Output)
}
