package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnknownTarget is returned when a name does not match any target.
var ErrUnknownTarget = errors.New("unknown target platform")

// Target is a marketplace build variant.
type Target int

const (
	// Universal places no platform restriction on the download.
	Universal Target = iota
	LinuxX64
	LinuxArm64
	DarwinX64
	DarwinArm64
	Win32X64
	Win32Arm64
)

type targetInfo struct {
	field string
	token string
}

// targets is indexed by Target. Universal has no query token.
var targets = [...]targetInfo{
	Universal:   {field: "universal"},
	LinuxX64:    {field: "linux_x64", token: "linux-x64"},
	LinuxArm64:  {field: "linux_arm64", token: "linux-arm64"},
	DarwinX64:   {field: "darwin_x64", token: "darwin-x64"},
	DarwinArm64: {field: "darwin_arm64", token: "darwin-arm64"},
	Win32X64:    {field: "win32_x64", token: "win32-x64"},
	Win32Arm64:  {field: "win32_arm64", token: "win32-arm64"},
}

// All returns every target in manifest processing order, universal first.
func All() []Target {
	return []Target{Universal, LinuxX64, LinuxArm64, DarwinX64, DarwinArm64, Win32X64, Win32Arm64}
}

// Parse returns the target whose manifest field name is s.
func Parse(s string) (Target, error) {
	for i, info := range targets {
		if info.field == s {
			return Target(i), nil
		}
	}
	return Universal, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// FieldName returns the manifest key for the target, e.g. "darwin_arm64".
func (t Target) FieldName() string {
	if !t.valid() {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targets[t].field
}

// QueryToken returns the gallery targetPlatform value, e.g. "darwin-arm64".
// ok is false for Universal, which sends no targetPlatform parameter.
func (t Target) QueryToken() (token string, ok bool) {
	if !t.valid() || targets[t].token == "" {
		return "", false
	}
	return targets[t].token, true
}

// String implements fmt.Stringer using the manifest field name.
func (t Target) String() string {
	return t.FieldName()
}

func (t Target) valid() bool {
	return t >= 0 && int(t) < len(targets)
}

// Host returns the concrete target matching the running binary's GOOS/GOARCH.
// ok is false on platforms the marketplace does not publish for.
func Host() (Target, bool) {
	return fromGo(runtime.GOOS, runtime.GOARCH)
}

func fromGo(goos, goarch string) (Target, bool) {
	switch goos + "/" + goarch {
	case "linux/amd64":
		return LinuxX64, true
	case "linux/arm64":
		return LinuxArm64, true
	case "darwin/amd64":
		return DarwinX64, true
	case "darwin/arm64":
		return DarwinArm64, true
	case "windows/amd64":
		return Win32X64, true
	case "windows/arm64":
		return Win32Arm64, true
	default:
		return Universal, false
	}
}
