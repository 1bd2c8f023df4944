package supervisor

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Mode selects which launch specification is used. The mode itself is
// supplied externally; resolution does nothing beyond mode selection.
type Mode string

const (
	// ModeDev runs the backend from the source checkout.
	ModeDev Mode = "dev"
	// ModePackaged runs the backend bundled next to the host binary.
	ModePackaged Mode = "packaged"
)

// LaunchSpec describes how to spawn the backend process.
type LaunchSpec struct {
	Path string   `toml:"path"`
	Args []string `toml:"args"`
	Dir  string   `toml:"dir"`
}

type launchManifest struct {
	Modes map[string]LaunchSpec `toml:"modes"`
}

// ResolveLaunchSpec returns the launch spec for the given mode. A
// manifest file, when provided, overrides the built-in spec for any
// mode it names; modes it omits fall back to the defaults.
func ResolveLaunchSpec(mode Mode, manifestPath string) (LaunchSpec, error) {
	if manifestPath != "" {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return LaunchSpec{}, fmt.Errorf("read launch manifest: %w", err)
		}

		var m launchManifest
		if err := toml.Unmarshal(data, &m); err != nil {
			return LaunchSpec{}, fmt.Errorf("parse launch manifest: %w", err)
		}

		if spec, ok := m.Modes[string(mode)]; ok {
			return spec, nil
		}
	}

	spec, ok := defaultSpec(mode)
	if !ok {
		return LaunchSpec{}, fmt.Errorf("unknown deployment mode %q", mode)
	}
	return spec, nil
}

func defaultSpec(mode Mode) (LaunchSpec, bool) {
	switch mode {
	case ModeDev:
		return LaunchSpec{
			Path: "python3",
			Args: []string{"server.py"},
			Dir:  "backend",
		}, true
	case ModePackaged:
		return LaunchSpec{
			Path: "./resources/backend/ultron-backend",
		}, true
	default:
		return LaunchSpec{}, false
	}
}
