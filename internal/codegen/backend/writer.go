package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"
	"golang.org/x/crypto/blake2b"
)

// Writer writes generated text to disk, applying the format step that belongs
// to the file extension. Files whose content did not change are left alone so
// build systems keep their timestamps.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// WriteFile formats content for path and writes it, creating parent directories.
func (w *Writer) WriteFile(path, content string) error {
	formatted, err := Format(path, content)
	if err != nil {
		return fmt.Errorf("format %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	data := []byte(formatted)
	if unchanged(path, data) {
		w.logger.Debug("Generated file unchanged", "file", path)
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.logger.Log(context.Background(), log.LevelTrace, "Wrote file", "file", path, "bytes", len(data))
	return nil
}

// Render executes t with data and writes the result to path.
func (w *Writer) Render(path string, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute %s template: %w", t.Name(), err)
	}
	return w.WriteFile(path, buf.String())
}

func unchanged(path string, data []byte) bool {
	old, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	a := blake2b.Sum256(old)
	b := blake2b.Sum256(data)
	return bytes.Equal(a[:], b[:])
}

// RemoveStale deletes files in dir matching any of the glob patterns.
// Every failure is reported, not just the first.
func RemoveStale(dir string, patterns ...string) error {
	var errs error
	fsys := os.DirFS(dir)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("glob %s: %w", pattern, err))
			continue
		}
		for _, m := range matches {
			if err := os.Remove(filepath.Join(dir, m)); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}

// Format applies the extension specific format step.
func Format(path, content string) (string, error) {
	switch filepath.Ext(path) {
	case ".idl":
		return FormatIDL(content)
	case ".py":
		return common.CollapseBlankLines(PrunePythonImports(content)), nil
	case ".h", ".c", ".hpp", ".cpp", ".lcm", ".msg":
		return common.CollapseBlankLines(content), nil
	default:
		return content, nil
	}
}

// FormatIDL re-indents IDL by brace depth and collapses runs of blank lines.
func FormatIDL(content string) (string, error) {
	var out []string
	level := 0
	for _, line := range common.SplitLines(content) {
		var indent string
		switch {
		case strings.Contains(line, "{"):
			level++
			indent = strings.Repeat(common.Indent, level-1)
		case strings.Contains(line, "}"):
			indent = strings.Repeat(common.Indent, max(level-1, 0))
			level--
		default:
			indent = strings.Repeat(common.Indent, level)
		}
		if level < 0 {
			return "", fmt.Errorf("unexpected '}': %w", ErrUnbalancedBraces)
		}
		formatted := indent + strings.TrimLeftFunc(line, unicode.IsSpace)

		if len(out) > 1 && isBlank(out[len(out)-1]) && isBlank(formatted) {
			continue
		}
		out = append(out, formatted)
	}
	if level != 0 {
		return "", fmt.Errorf("unexpected '{': %w", ErrUnbalancedBraces)
	}
	var b strings.Builder
	for _, l := range out {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func isBlank(s string) bool {
	return strings.TrimLeftFunc(s, unicode.IsSpace) == ""
}

// PrunePythonImports drops the stock imports a generated module never uses.
func PrunePythonImports(code string) string {
	if !strings.Contains(code, "np.") {
		code = strings.ReplaceAll(code, "import numpy as np", "")
	}
	if !strings.Contains(code, "List[") {
		code = strings.ReplaceAll(code, "from typing import List", "")
	}
	if !strings.Contains(code, "(Enum)") {
		code = strings.ReplaceAll(code, "from enum import Enum", "")
	}
	return code
}
