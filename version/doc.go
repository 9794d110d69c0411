// Package version reports the build identity of the taskflow binary.
//
// Version, commit, branch and build time are injected at link time:
//
//	go build -ldflags "-X github.com/kbukum/taskflow/version.Version=1.4.0 \
//	    -X github.com/kbukum/taskflow/version.BuildTime=2026-01-02T15:04:05Z" ./cmd/taskflow
//
// Values not injected are filled from the VCS stamp the Go toolchain
// embeds in module builds.
package version
