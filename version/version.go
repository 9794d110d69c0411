package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Link-time values.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

const shortCommit = 7

// Info describes the running build.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"git_commit,omitempty"`
	Branch    string    `json:"git_branch,omitempty"`
	BuildTime time.Time `json:"build_time,omitzero"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// Release reports whether the build carries a real version.
func (i Info) Release() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// Short renders "version-commit[-dirty]".
func (i Info) Short() string {
	if i.Commit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.Commit
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// String renders the short form plus a non-default branch and the build time.
func (i Info) String() string {
	s := i.Short()
	if i.Branch != "" && i.Branch != "main" && i.Branch != "master" {
		s += " (" + i.Branch + ")"
	}
	if !i.BuildTime.IsZero() {
		s += " built " + i.BuildTime.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s %s %s", s, i.GoVersion, i.Platform)
}

// Get returns the current build information.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

// Short is Get().Short().
func Short() string { return Get().Short() }

// resolve merges link-time values with the embedded VCS stamp. Link-time
// values win.
func resolve(bi *debug.BuildInfo) Info {
	info := Info{
		Version:  Version,
		Commit:   GitCommit,
		Branch:   GitBranch,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildTime = t
	}

	if bi == nil {
		info.GoVersion = runtime.Version()
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildTime = t
				}
			}
		}
	}
	if len(info.Commit) > shortCommit {
		info.Commit = info.Commit[:shortCommit]
	}
	return info
}
