package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/vsix-harvester/vsix-harvester/internal/extension"
	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

// DefaultConcurrency is the number of downloads run at once per category.
const DefaultConcurrency = 5

// ErrInvalidSettings wraps every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the resolved configuration for one run.
type Settings struct {
	Input          string `mapstructure:"input"`
	Destination    string `mapstructure:"destination"`
	NoCache        bool   `mapstructure:"no_cache"`
	Proxy          string `mapstructure:"proxy"`
	Verbose        bool   `mapstructure:"verbose"`
	Download       string `mapstructure:"download"`
	Arch           string `mapstructure:"arch"`
	EngineVersion  string `mapstructure:"engine_version"`
	PreRelease     bool   `mapstructure:"pre_release"`
	SerialDownload bool   `mapstructure:"serial_download"`
	StrictEngine   bool   `mapstructure:"strict_engine"`
	Concurrency    int    `mapstructure:"concurrency"`
	DumpResponses  string `mapstructure:"dump_responses"`
	// APIURL and GalleryURL override the marketplace endpoints, for mirrors.
	APIURL     string `mapstructure:"api_url"`
	GalleryURL string `mapstructure:"gallery_url"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Input:       "./extensions.json",
		Destination: "./extensions",
		Concurrency: DefaultConcurrency,
	}
}

// Validate checks values that would otherwise fail late, once downloads
// are already under way.
func (s Settings) Validate() error {
	if s.Destination == "" {
		return fmt.Errorf("%w: destination must not be empty", ErrInvalidSettings)
	}
	if s.Download == "" && s.Input == "" {
		return fmt.Errorf("%w: input must not be empty", ErrInvalidSettings)
	}
	if s.Download != "" {
		if _, err := extension.Parse(s.Download); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}
	if s.Arch != "" {
		if _, err := platform.Parse(s.Arch); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}
	if s.EngineVersion != "" {
		// Engine requirements are compared component by component, so a
		// leading "v" would never match.
		if strings.HasPrefix(s.EngineVersion, "v") || strings.HasPrefix(s.EngineVersion, "V") {
			return fmt.Errorf("%w: engine version %q must not start with \"v\"", ErrInvalidSettings, s.EngineVersion)
		}
		if _, err := semver.NewVersion(s.EngineVersion); err != nil {
			return fmt.Errorf("%w: engine version %q: %w", ErrInvalidSettings, s.EngineVersion, err)
		}
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidSettings, s.Concurrency)
	}
	if s.Proxy != "" {
		if _, err := s.ProxyURL(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
	}
	for name, raw := range map[string]string{"api url": s.APIURL, "gallery url": s.GalleryURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute URL", ErrInvalidSettings, name, raw)
		}
	}
	return nil
}

// Workers returns how many downloads may run at once.
func (s Settings) Workers() int {
	if s.SerialDownload || s.Concurrency < 1 {
		return 1
	}
	return s.Concurrency
}

// Target returns the platform for a direct download. An empty arch means
// universal.
func (s Settings) Target() (platform.Target, error) {
	if s.Arch == "" {
		return platform.Universal, nil
	}
	return platform.Parse(s.Arch)
}

// ProxyURL parses Proxy. It returns nil, nil when no proxy is set.
func (s Settings) ProxyURL() (*url.URL, error) {
	if s.Proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(s.Proxy)
	if err != nil {
		return nil, fmt.Errorf("proxy %q: %w", s.Proxy, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy %q: expected scheme://host[:port]", s.Proxy)
	}
	return u, nil
}
