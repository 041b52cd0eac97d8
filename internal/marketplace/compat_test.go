package marketplace

import "testing"

func TestSatisfies(t *testing.T) {
	tests := []struct {
		requirement string
		engine      string
		want        bool
	}{
		{"^1.97.0", "1.97.0", true},
		{"^1.97.0", "1.97.3", true},
		{"^1.97.0", "1.98.0", false},
		{"^1.97.0", "2.97.0", false},
		{"^1.97.0", "1.96.0", false},
		{"^1", "1.97.0", false},
		{"^1.97.0", "1", false},
		{">=1.96.0", "1.97.0", true},
		{">=1.96.0", "1.96.0", true},
		{">=1.96.0", "1.95.9", false},
		{">= 1.96.0", "1.96.1", true},
		{">=1.96", "1.96.0", true},
		{"1.97.0", "1.97.0", true},
		{"1.97", "1.97.0", false},
		{"1.97.0", "1.97.1", false},
		{"*", "1.97.0", false},
		{"97", "1.97.0", false},
		{"~1.97", "1.97.0", false},
		{"insiders", "1.97.0-insiders", true},
	}

	for _, tt := range tests {
		t.Run(tt.requirement+"/"+tt.engine, func(t *testing.T) {
			if got := Satisfies(tt.requirement, tt.engine); got != tt.want {
				t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.requirement, tt.engine, got, tt.want)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"greater minor", "1.97.0", "1.96.0", 1},
		{"equal", "1.97.0", "1.97.0", 0},
		{"missing component is zero", "1.97", "1.97.0", 0},
		{"lesser", "1.9", "1.10", -1},
		{"non-numeric is zero", "1.x.5", "1.0.5", 0},
		{"longer wins", "1.0.0.1", "1.0.0", 1},
		{"empty", "", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareVersions(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := CompareVersions(tt.b, tt.a); got != -tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestCompatibleVersions(t *testing.T) {
	versions := []Version{
		testVersion("3.0.0", "^1.98.0", false),
		testVersion("2.1.0", "^1.97.0", true),
		testVersion("2.0.0", "^1.97.0", false),
		testVersion("1.9.0", "", false),
		testVersion("1.0.0", ">=1.90.0", false),
	}

	t.Run("stable only", func(t *testing.T) {
		got := CompatibleVersions(versions, "1.97.0", false)
		assertVersions(t, got, "2.0.0", "1.0.0")
	})

	t.Run("with pre-release", func(t *testing.T) {
		got := CompatibleVersions(versions, "1.97.0", true)
		assertVersions(t, got, "2.1.0", "2.0.0", "1.0.0")
	})

	t.Run("none", func(t *testing.T) {
		got := CompatibleVersions(versions, "1.80.0", true)
		assertVersions(t, got)
	})
}

func TestVersionAccessors(t *testing.T) {
	v := Version{
		Version: "1.2.3",
		Files: []File{
			{AssetType: "Microsoft.VisualStudio.Services.Icons.Default", Source: "https://example/icon"},
			{AssetType: AssetTypeVSIX, Source: "https://example/pkg.vsix"},
		},
		Properties: []Property{
			{Key: PropertyEngine, Value: "^1.75.0"},
			{Key: PropertyPreRelease, Value: "false"},
		},
	}

	if got, ok := v.EngineRequirement(); !ok || got != "^1.75.0" {
		t.Errorf("EngineRequirement() = %q, %v", got, ok)
	}
	if got, ok := v.PreRelease(); !ok || got != "false" {
		t.Errorf("PreRelease() = %q, %v", got, ok)
	}
	if v.IsPreRelease() {
		t.Error("IsPreRelease() = true for value \"false\"")
	}
	if got, ok := v.VSIXSource(); !ok || got != "https://example/pkg.vsix" {
		t.Errorf("VSIXSource() = %q, %v", got, ok)
	}

	var empty Version
	if _, ok := empty.EngineRequirement(); ok {
		t.Error("EngineRequirement() found on empty version")
	}
	if _, ok := empty.VSIXSource(); ok {
		t.Error("VSIXSource() found on empty version")
	}
}

func testVersion(version, engine string, preRelease bool) Version {
	v := Version{Version: version}
	if engine != "" {
		v.Properties = append(v.Properties, Property{Key: PropertyEngine, Value: engine})
	}
	if preRelease {
		v.Properties = append(v.Properties, Property{Key: PropertyPreRelease, Value: "true"})
	}
	return v
}

func assertVersions(t *testing.T, got []Version, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d versions, want %d (%v)", len(got), len(want), want)
	}
	for i := range want {
		if got[i].Version != want[i] {
			t.Errorf("versions[%d] = %q, want %q", i, got[i].Version, want[i])
		}
	}
}
