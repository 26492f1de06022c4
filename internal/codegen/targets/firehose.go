package targets

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/generator"
)

// Options locate the inputs and outputs of a full run.
type Options struct {
	ICDDir      string
	ExtraICDDir string
	BuildDir    string
	OutputDir   string
	StagingDir  string
	// LCMGen and FastDDSGen are the external generator binaries. An empty
	// LCMGen skips the lcm-gen post step.
	LCMGen     string
	FastDDSGen string
}

// Validate checks the directory layout a run depends on.
func (o Options) Validate() error {
	if o.ICDDir == "" {
		return fmt.Errorf("icd directory is required")
	}
	build, err := filepath.Abs(o.BuildDir)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(o.OutputDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(build, out)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output directory %s must be a subdirectory of the build directory %s", out, build)
	}
	return nil
}

// Output directories of the targets, relative to Options.OutputDir.
var (
	CDir               = "aspn-c"
	CppDir             = "aspn-cpp"
	LCMDir             = "aspn-lcm"
	PyDir              = "aspn-py"
	ROSDir             = "aspn-ros"
	MarshalDir         = "aspn-marshal-lcm-c"
	DDSIDLDir          = filepath.Join("dds", "idl", DDSProject)
	DDSCppDir          = filepath.Join("dds", "cpp", DDSProject)
	LCMTranslationsDir = filepath.Join("lcm", "python", "aspn23_lcm")
	ROSTranslationsDir = filepath.Join("ros", "python", "aspn23_ros")
)

// Firehose returns every output target of a run.
func Firehose(o Options, logger *slog.Logger) *Set {
	out := func(dir string) string { return filepath.Join(o.OutputDir, dir) }
	convert := func(format, dir string) Step {
		return func(context.Context) error {
			return generator.New(o.ICDDir, nil, o.ExtraICDDir, logger.With("format", format)).
				GenerateFormat(format, out(dir))
		}
	}

	var lcmPost Step
	if o.LCMGen != "" {
		lcmPost = func(ctx context.Context) error {
			return LCMGen(ctx, logger, o.LCMGen, out(LCMDir), o.OutputDir)
		}
	}

	return NewSet(
		&Target{Name: "aspn_c", Run: convert("c", CDir)},
		&Target{Name: "aspn_cpp", Run: convert("cpp", CppDir)},
		&Target{Name: "aspn_lcm", Run: convert("lcm", LCMDir), Post: lcmPost},
		&Target{Name: "aspn_dds_idl", Run: convert("dds", DDSIDLDir)},
		&Target{Name: "aspn_lcm_translations", Deps: []string{"aspn_lcm"}, Run: convert("lcmtranslations", LCMTranslationsDir)},
		&Target{Name: "aspn_py", Run: convert("py", PyDir)},
		&Target{
			Name: "aspn_dds_cpp",
			Deps: []string{"aspn_dds_idl"},
			Run: func(ctx context.Context) error {
				return FastDDS(ctx, logger, o.FastDDSGen, out(DDSIDLDir), out(DDSCppDir), nil)
			},
		},
		&Target{Name: "aspn_ros", Run: convert("ros", ROSDir)},
		&Target{Name: "aspn_ros_translations", Deps: []string{"aspn_ros"}, Run: convert("rostranslations", ROSTranslationsDir)},
		&Target{Name: "aspn_marshal_lcm_c", Deps: []string{"aspn_lcm"}, Run: convert("marshal_lcm_c", MarshalDir)},
	)
}
