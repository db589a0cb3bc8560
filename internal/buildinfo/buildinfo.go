// Package buildinfo reports the build metadata injected with -ldflags:
//
//	go build -ldflags "-X github.com/dmitrijs2005/gophstash/internal/buildinfo.buildVersion=v1.0.0" ./cmd/cli
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

// PrintBuildData writes version, date and commit, one per line.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
}
