package main

import (
	"os"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
	"github.com/aspn-firehose/firehose/internal/config"
	"github.com/aspn-firehose/firehose/internal/configpaths"
	"github.com/aspn-firehose/firehose/internal/log"
	"go.uber.org/multierr"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	version, err := common.GetVersion()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("firehose"),
		kong.Description("Code generator for ASPN message schemas"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		// Flags and env override config values; earlier files win.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx.Bind(logger)
	err = ctx.Run()

	var closeErr error
	for _, c := range closeFiles {
		closeErr = multierr.Append(closeErr, c.Close())
	}
	ctx.FatalIfErrorf(multierr.Append(err, closeErr))
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("FIREHOSE_CONFIG")
}
