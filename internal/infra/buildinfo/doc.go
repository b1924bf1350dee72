// Package buildinfo provides build information for roguesave.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/roguesave/internal/infra/buildinfo.Version=v1.0.0"
//
// Info also reports the save format version the binary writes.
package buildinfo
