package marketplace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
)

// NewQuery builds the request body that looks up a single extension.
func NewQuery(id extension.ID, flags QueryFlags) Query {
	return Query{
		Filters: []QueryFilter{{
			Criteria: []Criterion{{
				FilterType: FilterTypeExtensionName,
				Value:      id.String(),
			}},
		}},
		Flags: flags,
	}
}

// ResolveVersion queries the marketplace and selects a version for req.
// The full version history is only requested when an engine version is set.
func (c *Client) ResolveVersion(ctx context.Context, req ResolveRequest) (Resolution, error) {
	versions, err := c.QueryVersions(ctx, req.ID, req.EngineVersion != "")
	if err != nil {
		return Resolution{}, err
	}

	res, err := Resolve(versions, req)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolving %s: %w", req.ID, err)
	}

	if res.Fallback {
		c.logger.Warn("No compatible version found, using latest",
			"extension", req.ID, "engine", req.EngineVersion, "version", res.Version)
	} else if req.EngineVersion != "" {
		c.logger.Debug("Found compatible version",
			"extension", req.ID, "engine", req.EngineVersion, "version", res.Version, "candidates", res.Candidates)
	}
	return res, nil
}

// QueryVersions returns the versions the marketplace lists for id, newest
// first. With allVersions unset only the latest version is requested.
func (c *Client) QueryVersions(ctx context.Context, id extension.ID, allVersions bool) ([]Version, error) {
	flags := LatestFlags()
	if allVersions {
		flags = AllVersionsFlags()
	}

	resp, err := c.query(ctx, id, NewQuery(id, flags))
	if err != nil {
		return nil, err
	}
	versions, err := resp.versions()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return versions, nil
}

func (c *Client) query(ctx context.Context, id extension.ID, q Query) (*QueryResponse, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encoding query for %s: %w", id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &QueryError{ID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json;api-version="+apiVersion)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Querying marketplace", "extension", id, "flags", q.Flags.Bits())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &QueryError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &QueryError{ID: id, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QueryError{ID: id, StatusCode: resp.StatusCode, Err: err}
	}

	c.dump(id, body)

	var out QueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ResponseParseError{ID: id, Body: body, Err: err}
	}
	return &out, nil
}
