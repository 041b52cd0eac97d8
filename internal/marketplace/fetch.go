package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

// FetchRequest asks for one extension package for one platform.
type FetchRequest struct {
	ResolveRequest
	Destination string
	// Force downloads even when the target file already exists.
	Force  bool
	Target platform.Target
}

// FetchResult describes what Fetch did.
type FetchResult struct {
	ID         extension.ID
	Target     platform.Target
	Resolution Resolution
	Artifact   Artifact
	// Cached is set when the file already existed and nothing was downloaded.
	Cached bool
	Bytes  int64
}

// Fetch resolves a version, derives its artifact, and downloads it unless the
// file is already present. The destination directory must exist.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	res, err := c.ResolveVersion(ctx, req.ResolveRequest)
	if err != nil {
		return nil, err
	}

	art := Locate(c.galleryURL, req.ID, res.Version, req.Destination, req.Target)
	result := &FetchResult{
		ID:         req.ID,
		Target:     req.Target,
		Resolution: res,
		Artifact:   art,
	}

	if !req.Force {
		if _, err := os.Stat(art.Path); err == nil {
			c.logger.Info("Skipping download, file already exists", "extension", req.ID, "path", art.Path)
			result.Cached = true
			return result, nil
		}
	}

	c.logger.Info("Downloading", "extension", req.ID, "version", res.Version, "target", req.Target)
	n, err := c.download(ctx, req.ID, art)
	if err != nil {
		return nil, err
	}
	result.Bytes = n
	c.logger.Info("Downloaded", "extension", req.ID, "path", art.Path, "size", humanize.Bytes(uint64(n)))
	return result, nil
}

func (c *Client) download(ctx context.Context, id extension.ID, art Artifact) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, art.URL, nil)
	if err != nil {
		return 0, &DownloadError{ID: id, URL: art.URL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &DownloadError{ID: id, URL: art.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &DownloadError{ID: id, URL: art.URL, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return 0, &DownloadError{ID: id, URL: art.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("opening gzip stream: %w", err)}
		}
		defer gz.Close()
		body = gz
	}

	src := &streamReader{r: body}
	n, err := writeFileAtomic(art.Path, src)
	if src.err != nil {
		return n, &DownloadError{ID: id, URL: art.URL, StatusCode: resp.StatusCode, Err: src.err}
	}
	return n, err
}

// streamReader remembers the first read error so a broken transfer can be
// told apart from a failed disk write.
type streamReader struct {
	r   io.Reader
	err error
}

func (s *streamReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && s.err == nil {
		s.err = err
	}
	return n, err
}

// writeFileAtomic streams r into a temporary file next to path and renames it
// into place, so path either holds the complete file or is untouched.
func writeFileAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("%w: creating temp file in %s: %w", ErrFilesystem, dir, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		cleanup()
		return n, fmt.Errorf("%w: writing %s: %w", ErrFilesystem, path, err)
	}
	if err := tmp.Chmod(fs.FileMode(0o644)); err != nil {
		tmp.Close()
		cleanup()
		return n, fmt.Errorf("%w: setting mode on %s: %w", ErrFilesystem, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, fmt.Errorf("%w: closing %s: %w", ErrFilesystem, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return n, fmt.Errorf("%w: renaming into %s: %w", ErrFilesystem, path, err)
	}
	return n, nil
}
