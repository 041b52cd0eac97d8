package marketplace

import (
	"fmt"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
)

// ResolveRequest describes which version of an extension to pick.
type ResolveRequest struct {
	ID extension.ID
	// EngineVersion is the target VS Code version. Empty means no constraint.
	EngineVersion   string
	AllowPreRelease bool
	// StrictEngine turns the fallback-to-latest into ErrNoCompatibleVersion.
	StrictEngine bool
}

// Resolution is the outcome of version selection.
type Resolution struct {
	Version string
	// Fallback is set when an engine was requested but no version satisfied
	// it and the newest version was chosen anyway.
	Fallback bool
	// Candidates is the number of compatible versions found. It is only
	// meaningful when an engine version was requested.
	Candidates int
}

// Resolve picks a version from versions, which must be in registry order.
func Resolve(versions []Version, req ResolveRequest) (Resolution, error) {
	if len(versions) == 0 {
		return Resolution{}, ErrNoVersionsAvailable
	}
	if req.EngineVersion == "" {
		return Resolution{Version: versions[0].Version}, nil
	}

	compatible := CompatibleVersions(versions, req.EngineVersion, req.AllowPreRelease)
	if len(compatible) > 0 {
		return Resolution{Version: compatible[0].Version, Candidates: len(compatible)}, nil
	}
	if req.StrictEngine {
		return Resolution{}, fmt.Errorf("%w %s", ErrNoCompatibleVersion, req.EngineVersion)
	}
	return Resolution{Version: versions[0].Version, Fallback: true}, nil
}
