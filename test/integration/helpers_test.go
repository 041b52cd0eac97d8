//go:build integration

package integration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsix-harvester/vsix-harvester/internal/cli"
	"github.com/vsix-harvester/vsix-harvester/internal/marketplace/marketplacetest"
)

// testEnv holds an isolated home, output directory and fake registry.
type testEnv struct {
	HomeDir  string
	WorkDir  string
	DestDir  string
	Registry *marketplacetest.Registry
}

// setupTestEnv sandboxes HOME, clears every variable the config loader
// reads, and points the marketplace endpoints at a fake registry through
// the environment.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:  t.TempDir(),
		WorkDir:  t.TempDir(),
		Registry: marketplacetest.NewRegistry(t),
	}
	env.DestDir = filepath.Join(env.WorkDir, "extensions")

	t.Setenv("HOME", env.HomeDir)
	for _, name := range []string{
		"EXTENSIONS_FILE", "OUTPUT_DIR", "NO_CACHE", "PROXY", "VERBOSE", "DOWNLOAD",
		"ARCH", "ENGINE_VERSION", "PRE_RELEASE", "SERIAL_DOWNLOAD",
		"VSIX_HARVESTER_INPUT", "VSIX_HARVESTER_DESTINATION", "VSIX_HARVESTER_NO_CACHE",
		"VSIX_HARVESTER_PROXY", "VSIX_HARVESTER_VERBOSE", "VSIX_HARVESTER_DOWNLOAD",
		"VSIX_HARVESTER_ARCH", "VSIX_HARVESTER_ENGINE_VERSION", "VSIX_HARVESTER_PRE_RELEASE",
		"VSIX_HARVESTER_SERIAL_DOWNLOAD", "VSIX_HARVESTER_STRICT_ENGINE",
		"VSIX_HARVESTER_CONCURRENCY", "VSIX_HARVESTER_DUMP_RESPONSES",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("VSIX_HARVESTER_API_URL", env.Registry.APIURL())
	t.Setenv("VSIX_HARVESTER_GALLERY_URL", env.Registry.GalleryURL())
	return env
}

// run executes the CLI with args and returns combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand(cli.BuildInfo{Version: "0.0.0-test", Commit: "none", Date: "never"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
