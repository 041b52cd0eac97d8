package marketplace_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
	"github.com/vsix-harvester/vsix-harvester/internal/marketplace"
	"github.com/vsix-harvester/vsix-harvester/internal/marketplace/marketplacetest"
	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

func newClient(reg *marketplacetest.Registry, opts ...marketplace.Option) *marketplace.Client {
	base := []marketplace.Option{
		marketplace.WithHTTPClient(reg.Server.Client()),
		marketplace.WithAPIURL(reg.APIURL()),
		marketplace.WithGalleryURL(reg.GalleryURL()),
	}
	return marketplace.New("1.2.3", append(base, opts...)...)
}

func TestResolveVersion_Headers(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "^1.97.0", false))
	c := newClient(reg)

	res, err := c.ResolveVersion(context.Background(), marketplace.ResolveRequest{
		ID: extension.MustParse("publisher.name"),
	})
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if res.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", res.Version)
	}

	h := reg.LastHeader()
	if got := h.Get("Accept"); got != "application/json;api-version=3.0-preview.1" {
		t.Errorf("Accept = %q", got)
	}
	if got := h.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := h.Get("User-Agent"); got != "Offline VSIX/1.2.3" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := reg.LastFlags(); got != marketplace.LatestFlags().Bits() {
		t.Errorf("flags = %#x, want latest flags", got)
	}
}

func TestResolveVersion_EngineUsesFullHistory(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name",
		marketplacetest.Version("2.0.0", "^1.98.0", false),
		marketplacetest.Version("1.0.0", "^1.97.0", false),
	)
	c := newClient(reg)

	res, err := c.ResolveVersion(context.Background(), marketplace.ResolveRequest{
		ID:            extension.MustParse("publisher.name"),
		EngineVersion: "1.97.0",
	})
	if err != nil {
		t.Fatalf("ResolveVersion: %v", err)
	}
	if res.Version != "1.0.0" || res.Fallback {
		t.Errorf("got %+v, want 1.0.0 without fallback", res)
	}
	if got := reg.LastFlags(); got != marketplace.AllVersionsFlags().Bits() {
		t.Errorf("flags = %#x, want all-versions flags", got)
	}
}

func TestResolveVersion_Errors(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.empty")
	c := newClient(reg)

	_, err := c.ResolveVersion(context.Background(), marketplace.ResolveRequest{ID: extension.MustParse("publisher.missing")})
	if !errors.Is(err, marketplace.ErrExtensionNotFound) {
		t.Errorf("missing extension error = %v, want ErrExtensionNotFound", err)
	}

	_, err = c.ResolveVersion(context.Background(), marketplace.ResolveRequest{ID: extension.MustParse("publisher.empty")})
	if !errors.Is(err, marketplace.ErrNoVersionsAvailable) {
		t.Errorf("empty versions error = %v, want ErrNoVersionsAvailable", err)
	}
}

func TestResolveVersion_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := marketplace.New("dev", marketplace.WithHTTPClient(server.Client()), marketplace.WithAPIURL(server.URL))
	_, err := c.ResolveVersion(context.Background(), marketplace.ResolveRequest{ID: extension.MustParse("a.b")})
	if !errors.Is(err, marketplace.ErrRegistryQueryFailed) {
		t.Fatalf("error = %v, want ErrRegistryQueryFailed", err)
	}
	var qe *marketplace.QueryError
	if !errors.As(err, &qe) || qe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("QueryError = %+v, want status 503", qe)
	}
}

// closedURL returns the address of a server that no longer accepts
// connections.
func closedURL(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	u := server.URL
	server.Close()
	return u
}

func TestResolveVersion_TransportFailure(t *testing.T) {
	c := marketplace.New("dev", marketplace.WithAPIURL(closedURL(t)+"/extensionquery"))
	_, err := c.ResolveVersion(context.Background(), marketplace.ResolveRequest{ID: extension.MustParse("a.b")})
	if !errors.Is(err, marketplace.ErrRegistryQueryFailed) {
		t.Fatalf("error = %v, want ErrRegistryQueryFailed", err)
	}
	var qe *marketplace.QueryError
	if !errors.As(err, &qe) || qe.Err == nil || qe.StatusCode != 0 {
		t.Errorf("QueryError = %+v, want transport cause without status", qe)
	}
}

func TestResolveVersion_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": "nope"`))
	}))
	defer server.Close()

	c := marketplace.New("dev", marketplace.WithHTTPClient(server.Client()), marketplace.WithAPIURL(server.URL))
	_, err := c.ResolveVersion(context.Background(), marketplace.ResolveRequest{ID: extension.MustParse("a.b")})
	if !errors.Is(err, marketplace.ErrResponseParseFailed) {
		t.Fatalf("error = %v, want ErrResponseParseFailed", err)
	}
	var pe *marketplace.ResponseParseError
	if !errors.As(err, &pe) || !strings.Contains(string(pe.Body), "nope") {
		t.Errorf("ResponseParseError body not preserved: %+v", pe)
	}
}

func TestDumpResponses(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
	dir := filepath.Join(t.TempDir(), "dumps")
	c := newClient(reg, marketplace.WithDumpDir(dir))

	id := extension.MustParse("publisher.name")
	if _, err := c.QueryVersions(context.Background(), id, false); err != nil {
		t.Fatal(err)
	}

	path := marketplace.DumpPath(dir, id)
	if filepath.Base(path) != "vsix_harvester_publisher.name.json" {
		t.Errorf("dump file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("dump not written: %v", err)
	}
	if !strings.Contains(string(data), `"1.0.0"`) {
		t.Errorf("dump does not contain response: %s", data)
	}
}

func TestFetch(t *testing.T) {
	for _, gzipped := range []bool{false, true} {
		name := "plain"
		if gzipped {
			name = "gzip"
		}
		t.Run(name, func(t *testing.T) {
			reg := marketplacetest.NewRegistry(t)
			reg.Gzip = gzipped
			reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
			reg.AddPackage("publisher.name", "1.0.0", "linux-x64", []byte("vsix-bytes"))
			c := newClient(reg)

			dest := t.TempDir()
			res, err := c.Fetch(context.Background(), marketplace.FetchRequest{
				ResolveRequest: marketplace.ResolveRequest{ID: extension.MustParse("publisher.name")},
				Destination:    dest,
				Target:         platform.LinuxX64,
			})
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if res.Cached {
				t.Error("first fetch reported Cached")
			}
			want := filepath.Join(dest, "publisher.name-1.0.0@linux-x64.vsix")
			if res.Artifact.Path != want {
				t.Errorf("Path = %q, want %q", res.Artifact.Path, want)
			}
			data, err := os.ReadFile(want)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "vsix-bytes" {
				t.Errorf("content = %q", data)
			}
			if res.Bytes != int64(len("vsix-bytes")) {
				t.Errorf("Bytes = %d", res.Bytes)
			}

			entries, _ := os.ReadDir(dest)
			if len(entries) != 1 {
				t.Errorf("destination has %d entries, want only the package", len(entries))
			}
		})
	}
}

func TestFetch_SkipsExisting(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
	reg.AddPackage("publisher.name", "1.0.0", "", []byte("new"))
	c := newClient(reg)

	dest := t.TempDir()
	existing := filepath.Join(dest, "publisher.name-1.0.0.vsix")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := marketplace.FetchRequest{
		ResolveRequest: marketplace.ResolveRequest{ID: extension.MustParse("publisher.name")},
		Destination:    dest,
	}
	res, err := c.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Cached {
		t.Error("expected Cached for existing file")
	}
	if reg.Downloads() != 0 {
		t.Errorf("downloads = %d, want 0", reg.Downloads())
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Errorf("existing file was modified: %q", data)
	}

	req.Force = true
	res, err = c.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("forced Fetch: %v", err)
	}
	if res.Cached || reg.Downloads() != 1 {
		t.Errorf("forced fetch: cached=%v downloads=%d", res.Cached, reg.Downloads())
	}
	if data, _ := os.ReadFile(existing); string(data) != "new" {
		t.Errorf("forced fetch content = %q, want new", data)
	}
}

func TestFetch_DownloadNotFound(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
	c := newClient(reg)

	dest := t.TempDir()
	_, err := c.Fetch(context.Background(), marketplace.FetchRequest{
		ResolveRequest: marketplace.ResolveRequest{ID: extension.MustParse("publisher.name")},
		Destination:    dest,
	})
	if !errors.Is(err, marketplace.ErrDownloadFailed) {
		t.Fatalf("error = %v, want ErrDownloadFailed", err)
	}
	var de *marketplace.DownloadError
	if !errors.As(err, &de) || de.StatusCode != http.StatusNotFound || de.ID.String() != "publisher.name" {
		t.Errorf("DownloadError = %+v", de)
	}
	if entries, _ := os.ReadDir(dest); len(entries) != 0 {
		t.Errorf("failed download left %d files behind", len(entries))
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
	c := newClient(reg, marketplace.WithGalleryURL(closedURL(t)+"/publishers"))

	dest := t.TempDir()
	_, err := c.Fetch(context.Background(), marketplace.FetchRequest{
		ResolveRequest: marketplace.ResolveRequest{ID: extension.MustParse("publisher.name")},
		Destination:    dest,
	})
	if !errors.Is(err, marketplace.ErrDownloadFailed) {
		t.Fatalf("error = %v, want ErrDownloadFailed", err)
	}
	var de *marketplace.DownloadError
	if !errors.As(err, &de) || de.Err == nil || de.StatusCode != 0 {
		t.Errorf("DownloadError = %+v, want transport cause without status", de)
	}
	if entries, _ := os.ReadDir(dest); len(entries) != 0 {
		t.Errorf("failed download left %d files behind", len(entries))
	}
}

func TestFetch_ThroughProxy(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
	reg.AddPackage("publisher.name", "1.0.0", "", []byte("proxied"))

	var hits atomic.Int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != "registry.invalid" {
			http.Error(w, "unexpected host "+r.Host, http.StatusBadGateway)
			return
		}
		hits.Add(1)
		reg.Server.Config.Handler.ServeHTTP(w, r)
	}))
	defer proxy.Close()

	pu, err := url.Parse(proxy.URL)
	if err != nil {
		t.Fatal(err)
	}
	c := marketplace.New("1",
		marketplace.WithProxy(pu),
		marketplace.WithAPIURL("http://registry.invalid/extensionquery"),
		marketplace.WithGalleryURL("http://registry.invalid/publishers"),
	)

	dest := t.TempDir()
	res, err := c.Fetch(context.Background(), marketplace.FetchRequest{
		ResolveRequest: marketplace.ResolveRequest{ID: extension.MustParse("publisher.name")},
		Destination:    dest,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("proxy saw %d requests, want query and download", got)
	}
	if data, _ := os.ReadFile(res.Artifact.Path); string(data) != "proxied" {
		t.Errorf("content = %q", data)
	}
}

func TestNew_WarnsWhenProxyIgnored(t *testing.T) {
	var buf bytes.Buffer
	pu, _ := url.Parse("http://proxy.local:3128")

	marketplace.New("1", marketplace.WithProxy(pu), marketplace.WithLogger(log.New(&buf)))
	if buf.Len() != 0 {
		t.Errorf("unexpected log output without a custom client: %s", buf.String())
	}

	marketplace.New("1",
		marketplace.WithHTTPClient(http.DefaultClient),
		marketplace.WithProxy(pu),
		marketplace.WithLogger(log.New(&buf)),
	)
	if !strings.Contains(buf.String(), "ignoring proxy") {
		t.Errorf("expected a warning about the ignored proxy, got %q", buf.String())
	}
}

func TestFetch_MissingDestination(t *testing.T) {
	reg := marketplacetest.NewRegistry(t)
	reg.AddExtension("publisher.name", marketplacetest.Version("1.0.0", "", false))
	reg.AddPackage("publisher.name", "1.0.0", "", []byte("x"))
	c := newClient(reg)

	_, err := c.Fetch(context.Background(), marketplace.FetchRequest{
		ResolveRequest: marketplace.ResolveRequest{ID: extension.MustParse("publisher.name")},
		Destination:    filepath.Join(t.TempDir(), "does", "not", "exist"),
	})
	if !errors.Is(err, marketplace.ErrFilesystem) {
		t.Errorf("error = %v, want ErrFilesystem", err)
	}
}
