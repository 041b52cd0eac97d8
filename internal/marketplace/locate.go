package marketplace

import (
	"net/url"
	"strings"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

// Artifact is where a package is downloaded from and written to.
type Artifact struct {
	URL  string
	Path string
}

// FileName returns "{publisher}.{name}-{version}[@{token}].vsix".
func FileName(id extension.ID, version string, target platform.Target) string {
	name := id.String() + "-" + version
	if token, ok := target.QueryToken(); ok {
		name += "@" + token
	}
	return name + ".vsix"
}

// Locate derives the download URL and local path for one version. The
// destination is joined verbatim with "/" so relative prefixes such as "./"
// are kept. It performs no I/O.
func Locate(galleryURL string, id extension.ID, version, destination string, target platform.Target) Artifact {
	u := strings.TrimRight(galleryURL, "/") + "/" +
		url.PathEscape(id.Publisher) + "/vsextensions/" +
		url.PathEscape(id.Name) + "/" +
		url.PathEscape(version) + "/vspackage"
	if token, ok := target.QueryToken(); ok {
		u += "?targetPlatform=" + url.QueryEscape(token)
	}

	path := FileName(id, version, target)
	if destination != "" {
		dir := destination
		if len(dir) > 1 {
			dir = strings.TrimRight(dir, "/")
		}
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		path = dir + path
	}

	return Artifact{URL: u, Path: path}
}
