// Package version provides the jenkins-provisioner version strings.
package version

import (
	_ "embed"
	"runtime"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var baseVersion string

// buildVersion is set by release builds:
//
//	go build -ldflags "-X github.com/pipelinekit/jenkins-provisioner/version.buildVersion=42" .
var buildVersion string

// Version is the release number from the VERSION file, e.g. "1.2.0".
func Version() string {
	return strings.TrimSpace(baseVersion)
}

// BuildVersion identifies the build. Release builds stamp it with the
// linker; local builds from a git checkout use the short commit instead,
// with a "-dirty" suffix for uncommitted changes. "x" means unknown.
func BuildVersion() string {
	if buildVersion != "" {
		return buildVersion
	}
	if rev, dirty := vcsRevision(); rev != "" {
		if dirty {
			return rev + "-dirty"
		}
		return rev
	}
	return "x"
}

func vcsRevision() (rev string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}

func FullVersion() string {
	return Version() + "+" + BuildVersion()
}

// UserAgent is sent with every request to Jenkins.
func UserAgent() string {
	return "jenkins-provisioner/" + Version() + "." + BuildVersion() + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}
