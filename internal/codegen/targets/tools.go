package targets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/bmatcuk/doublestar/v4"
)

func command(ctx context.Context, logger *slog.Logger, name string, args ...string) error {
	logger.Debug("Running command", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return nil
}

// LCMGen runs lcm-gen over the .lcm files of lcmDir for every supported
// language, placing the results below outDir/lcm/<language>.
func LCMGen(ctx context.Context, logger *slog.Logger, lcmGen, lcmDir, outDir string) error {
	matches, err := doublestar.Glob(os.DirFS(lcmDir), "*.lcm", doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("scan lcm dir: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no .lcm files in %s", lcmDir)
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(lcmDir, m))
	}

	base := filepath.Join(outDir, "lcm")
	cSrc := filepath.Join(base, "c", "src")
	cInc := filepath.Join(base, "c", "include")
	for _, dir := range []string{cSrc, cInc} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	runs := [][]string{
		{"-p", "--ppath", filepath.Join(base, "python")},
		{"-j", "--jpath", filepath.Join(base, "java")},
		{"-x", "--cpp-hpath", filepath.Join(base, "cpp")},
		{"-c", "--c-cpath", cSrc, "--c-hpath", cInc},
	}
	for _, r := range runs {
		args := append([]string{r[0]}, files...)
		args = append(args, r[1:]...)
		if err := command(ctx, logger, lcmGen, args...); err != nil {
			return err
		}
	}
	logger.Info("Generated lcm-gen bindings", "files", len(files), "dir", base)
	return nil
}

// DDSProject is the CMake/meson project wrapping the fastddsgen output.
const DDSProject = "aspn23_dds"

// FastDDS runs fastddsgen over the IDL of idlDir into cppDir and writes the
// build files around it: meson.build at the common root of both dirs,
// meson.build, CMakeLists.txt and the CMake package config next to cppDir.
func FastDDS(ctx context.Context, logger *slog.Logger, fastddsgen, idlDir, cppDir string, extraArgs []string) error {
	idlDir, err := filepath.Abs(idlDir)
	if err != nil {
		return err
	}
	cppDir, err = filepath.Abs(cppDir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(cppDir); err != nil {
		return err
	}
	if err := os.MkdirAll(cppDir, 0o755); err != nil {
		return err
	}

	idls, err := doublestar.Glob(os.DirFS(idlDir), "*.idl", doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("scan idl dir: %w", err)
	}
	args := []string{"-flat-output-dir", "-I", filepath.Dir(idlDir), "-I", idlDir, "-d", cppDir}
	args = append(args, extraArgs...)
	for _, f := range idls {
		args = append(args, filepath.Join(idlDir, f))
	}
	if err := command(ctx, logger, fastddsgen, args...); err != nil {
		return err
	}

	return writeDDSBuild(logger, idlDir, cppDir)
}

func writeDDSBuild(logger *slog.Logger, idlDir, cppDir string) error {
	w := backend.NewWriter(logger)
	project := filepath.Dir(cppDir)
	sources, headers, err := cppFiles(cppDir, project)
	if err != nil {
		return err
	}
	data := map[string]any{
		"Project": DDSProject,
		"Sources": sources,
		"Headers": headers,
	}

	files := []struct {
		path string
		tmpl *template.Template
	}{
		{filepath.Join(commonRoot(idlDir, cppDir), "meson.build"), ddsRootMeson},
		{filepath.Join(project, "meson.build"), ddsCppMeson},
		{filepath.Join(project, "CMakeLists.txt"), ddsCMakeLists},
		{filepath.Join(project, "cmake", DDSProject+"Config.cmake.in"), ddsCMakeConfig},
	}
	for _, f := range files {
		if err := w.Render(f.path, f.tmpl, data); err != nil {
			return err
		}
		logger.Info("Generated DDS build file", "file", f.path)
	}
	return nil
}

// cppFiles lists the generated sources and headers of dir relative to rel.
func cppFiles(dir, rel string) (sources, headers []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p, err := filepath.Rel(rel, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, nil, err
		}
		p = filepath.ToSlash(p)
		switch filepath.Ext(e.Name()) {
		case ".c", ".cpp", ".cxx":
			sources = append(sources, p)
		case ".h", ".hpp", ".hxx":
			headers = append(headers, p)
		}
	}
	return sources, headers, nil
}

// commonRoot returns the longest shared directory prefix of a and b.
func commonRoot(a, b string) string {
	pa := strings.Split(filepath.Clean(a), string(filepath.Separator))
	pb := strings.Split(filepath.Clean(b), string(filepath.Separator))
	n := 0
	for n < len(pa) && n < len(pb) && pa[n] == pb[n] {
		n++
	}
	root := strings.Join(pa[:n], string(filepath.Separator))
	if root == "" {
		return string(filepath.Separator)
	}
	return root
}
