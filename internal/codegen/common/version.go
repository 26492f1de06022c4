package common

import (
	"fmt"
	"strings"
)

// Version is set via ldflags at build time: -ldflags "-X github.com/aspn-firehose/firehose/internal/codegen/common.Version=x.y.z"
var Version = ""

// GetVersion returns the version string that was set at build time via ldflags.
// Returns "0.0.1-dev" if Version is empty (development builds only).
func GetVersion() (string, error) {
	if Version == "" {
		return "0.0.1-dev", nil
	}

	version := strings.TrimPrefix(Version, "v")
	baseVersion := strings.SplitN(version, "-", 2)[0]
	if !strings.Contains(baseVersion, ".") {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}

	return version, nil
}

// GeneratedBanner is the two-line notice placed at the top of generated files.
func GeneratedBanner(commentPrefix string) string {
	return fmt.Sprintf("%s This code is generated via firehose.\n%s DO NOT hand edit code.  Make any changes required using the firehose repo instead\n",
		commentPrefix, commentPrefix)
}
