package targets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"
)

// ErrDirtyOutput is returned by CleanOutput for a git work tree with
// uncommitted changes.
var ErrDirtyOutput = errors.New("git repository has uncommitted changes, commit or stash them before proceeding")

// CleanOutput prepares dir for a fresh run. A directory that is the root of a
// git work tree is left alone but must be clean; anything else is emptied.
func CleanOutput(ctx context.Context, dir string, logger *slog.Logger) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(dir); err != nil {
		return fmt.Errorf("output directory: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}

	top, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil || !sameDir(strings.TrimSpace(top), dir) {
		logger.Info("Output directory is not the root of a git repository, deleting all contents", "dir", dir)
		return EmptyDir(dir)
	}

	status, err := git(ctx, dir, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("check git status: %w", err)
	}
	if strings.TrimSpace(status) != "" {
		return fmt.Errorf("%s: %w", dir, ErrDirtyOutput)
	}
	logger.Info("Git repository is clean, continuing", "dir", dir)
	return nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func sameDir(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		return false
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		return false
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
}

// EmptyDir removes every entry of dir but not dir itself.
func EmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to delete '%s': %w", e.Name(), err))
		}
	}
	return errs
}

// Stage copies the non-generated files below stagingDir over outDir,
// keeping their relative paths.
func Stage(stagingDir, outDir string, logger *slog.Logger) error {
	if _, err := os.Stat(stagingDir); os.IsNotExist(err) {
		logger.Debug("No staging directory", "dir", stagingDir)
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(stagingDir), "**", doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("scan staging dir: %w", err)
	}
	for _, m := range matches {
		src := filepath.Join(stagingDir, filepath.FromSlash(m))
		dst := filepath.Join(outDir, filepath.FromSlash(m))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("stage %s: %w", m, err)
		}
	}
	logger.Info("Staged files", "count", len(matches), "from", stagingDir, "to", outDir)
	return nil
}

func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	_, err = io.Copy(out, in)
	return err
}
