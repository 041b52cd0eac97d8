package manifest

import "github.com/vsix-harvester/vsix-harvester/internal/platform"

// Extensions lists identifiers per platform category. Every list is
// optional; a missing key behaves like an empty list.
type Extensions struct {
	Universal   []string `json:"universal,omitempty" yaml:"universal,omitempty"`
	LinuxX64    []string `json:"linux_x64,omitempty" yaml:"linux_x64,omitempty"`
	LinuxArm64  []string `json:"linux_arm64,omitempty" yaml:"linux_arm64,omitempty"`
	DarwinX64   []string `json:"darwin_x64,omitempty" yaml:"darwin_x64,omitempty"`
	DarwinArm64 []string `json:"darwin_arm64,omitempty" yaml:"darwin_arm64,omitempty"`
	Win32X64    []string `json:"win32_x64,omitempty" yaml:"win32_x64,omitempty"`
	Win32Arm64  []string `json:"win32_arm64,omitempty" yaml:"win32_arm64,omitempty"`
}

// List returns the identifiers for one platform category.
func (e *Extensions) List(t platform.Target) []string {
	switch t {
	case platform.Universal:
		return e.Universal
	case platform.LinuxX64:
		return e.LinuxX64
	case platform.LinuxArm64:
		return e.LinuxArm64
	case platform.DarwinX64:
		return e.DarwinX64
	case platform.DarwinArm64:
		return e.DarwinArm64
	case platform.Win32X64:
		return e.Win32X64
	case platform.Win32Arm64:
		return e.Win32Arm64
	default:
		return nil
	}
}

// Total returns the number of entries across all categories.
func (e *Extensions) Total() int {
	n := 0
	for _, t := range platform.All() {
		n += len(e.List(t))
	}
	return n
}
