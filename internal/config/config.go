package config

import (
	"github.com/aspn-firehose/firehose/internal/cmd"

	"github.com/alecthomas/kong"
)

// Log holds the logging flags shared by every command.
type Log struct {
	Level string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"FIREHOSE_LOG_LEVEL"`
	File  string `help:"Also write logs to this file" env:"FIREHOSE_LOG_FILE"`
}

// CLI is the root kong grammar of the firehose binary.
type CLI struct {
	Version kong.VersionFlag `help:"Print the version and exit"`
	Config  string           `help:"Path to a JSON, YAML or TOML configuration file" type:"path" env:"FIREHOSE_CONFIG"`
	Log     Log              `embed:"" prefix:"log."`

	Convert  cmd.Convert       `cmd:"" help:"Render one ICD tree with a single backend"`
	Generate cmd.Generate      `cmd:"" help:"Run output targets in dependency order" default:"withargs"`
	Targets  cmd.Targets       `cmd:"" help:"List the available output targets"`
	Cfg      cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}
