// Package marketplacetest provides an in-process fake of the marketplace
// gallery API for tests.
package marketplacetest

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/vsix-harvester/vsix-harvester/internal/marketplace"
)

const latestOnlyBit = 0x200

// Registry is a fake gallery serving extensionquery and vspackage requests.
type Registry struct {
	Server *httptest.Server

	// Gzip makes package downloads respond with Content-Encoding: gzip.
	Gzip bool

	mu         sync.Mutex
	extensions map[string][]marketplace.Version
	packages   map[string][]byte
	queries    int
	downloads  int
	lastFlags  int
	lastHeader http.Header
}

// NewRegistry starts a fake registry that is closed with the test.
func NewRegistry(tb testing.TB) *Registry {
	tb.Helper()
	r := &Registry{
		extensions: make(map[string][]marketplace.Version),
		packages:   make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /extensionquery", r.handleQuery)
	mux.HandleFunc("GET /publishers/{publisher}/vsextensions/{name}/{version}/vspackage", r.handlePackage)
	r.Server = httptest.NewServer(mux)
	tb.Cleanup(r.Server.Close)
	return r
}

// APIURL is the extensionquery endpoint of the fake.
func (r *Registry) APIURL() string { return r.Server.URL + "/extensionquery" }

// GalleryURL is the download base of the fake.
func (r *Registry) GalleryURL() string { return r.Server.URL + "/publishers" }

// AddExtension registers versions for id, newest first.
func (r *Registry) AddExtension(id string, versions ...marketplace.Version) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[id] = versions
}

// AddPackage registers the bytes served for id at version. token is the
// targetPlatform query value, empty for universal packages.
func (r *Registry) AddPackage(id, version, token string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[packageKey(id, version, token)] = body
}

// Queries returns how many extensionquery calls were served.
func (r *Registry) Queries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries
}

// Downloads returns how many vspackage calls were received.
func (r *Registry) Downloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.downloads
}

// LastFlags returns the flags bitmask of the most recent query.
func (r *Registry) LastFlags() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFlags
}

// LastHeader returns the headers of the most recent query.
func (r *Registry) LastHeader() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastHeader.Clone()
}

// Version builds a version carrying an engine requirement and, when
// preRelease is set, the pre-release property.
func Version(version, engine string, preRelease bool) marketplace.Version {
	v := marketplace.Version{Version: version}
	if engine != "" {
		v.Properties = append(v.Properties, marketplace.Property{Key: marketplace.PropertyEngine, Value: engine})
	}
	if preRelease {
		v.Properties = append(v.Properties, marketplace.Property{Key: marketplace.PropertyPreRelease, Value: "true"})
	}
	return v
}

type wireQuery struct {
	Filters []struct {
		Criteria []struct {
			FilterType int    `json:"filterType"`
			Value      string `json:"value"`
		} `json:"criteria"`
	} `json:"filters"`
	Flags int `json:"flags"`
}

func (r *Registry) handleQuery(w http.ResponseWriter, req *http.Request) {
	var q wireQuery
	if err := json.NewDecoder(req.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(q.Filters) == 0 || len(q.Filters[0].Criteria) == 0 {
		http.Error(w, "missing criteria", http.StatusBadRequest)
		return
	}
	id := q.Filters[0].Criteria[0].Value

	r.mu.Lock()
	r.queries++
	r.lastFlags = q.Flags
	r.lastHeader = req.Header.Clone()
	versions, ok := r.extensions[id]
	r.mu.Unlock()

	resp := marketplace.QueryResponse{Results: []marketplace.QueryResult{{}}}
	if ok {
		if q.Flags&latestOnlyBit != 0 && len(versions) > 1 {
			versions = versions[:1]
		}
		resp.Results[0].Extensions = []marketplace.Extension{{
			ExtensionName: id,
			Versions:      versions,
		}}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (r *Registry) handlePackage(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("publisher") + "." + req.PathValue("name")
	key := packageKey(id, req.PathValue("version"), req.URL.Query().Get("targetPlatform"))

	r.mu.Lock()
	r.downloads++
	body, ok := r.packages[key]
	useGzip := r.Gzip
	r.mu.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if !useGzip {
		_, _ = w.Write(body)
		return
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(body)
	_ = gz.Close()
	w.Header().Set("Content-Encoding", "gzip")
	_, _ = w.Write(buf.Bytes())
}

func packageKey(id, version, token string) string {
	key := id + "/" + version
	if token != "" {
		key += "@" + token
	}
	return key
}
