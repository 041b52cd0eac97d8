package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/vsix-harvester/vsix-harvester/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys, shared by the config file, flags and environment.
const (
	KeyInput          = "input"
	KeyDestination    = "destination"
	KeyNoCache        = "no_cache"
	KeyProxy          = "proxy"
	KeyVerbose        = "verbose"
	KeyDownload       = "download"
	KeyArch           = "arch"
	KeyEngineVersion  = "engine_version"
	KeyPreRelease     = "pre_release"
	KeySerialDownload = "serial_download"
	KeyStrictEngine   = "strict_engine"
	KeyConcurrency    = "concurrency"
	KeyDumpResponses  = "dump_responses"
	KeyAPIURL         = "api_url"
	KeyGalleryURL     = "gallery_url"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyInput, KeyDestination, KeyNoCache, KeyProxy, KeyVerbose, KeyDownload, KeyArch,
	KeyEngineVersion, KeyPreRelease, KeySerialDownload, KeyStrictEngine, KeyConcurrency,
	KeyDumpResponses, KeyAPIURL, KeyGalleryURL,
}

// envAliases are the unprefixed variable names accepted for compatibility
// with earlier releases. The prefixed name wins when both are set.
var envAliases = map[string]string{
	KeyInput:          "EXTENSIONS_FILE",
	KeyDestination:    "OUTPUT_DIR",
	KeyNoCache:        "NO_CACHE",
	KeyProxy:          "PROXY",
	KeyVerbose:        "VERBOSE",
	KeyDownload:       "DOWNLOAD",
	KeyArch:           "ARCH",
	KeyEngineVersion:  "ENGINE_VERSION",
	KeyPreRelease:     "PRE_RELEASE",
	KeySerialDownload: "SERIAL_DOWNLOAD",
}

// ErrUnknownKey is returned by Set for keys that are not settings.
var ErrUnknownKey = errors.New("unknown config key")

// Dir returns the path to the config directory (~/.vsix-harvester/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the default config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// New returns a Viper instance seeded with defaults, environment bindings
// and, when it exists, the config file. An empty path selects FilePath();
// an explicit path must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyInput, d.Input)
	v.SetDefault(KeyDestination, d.Destination)
	v.SetDefault(KeyNoCache, d.NoCache)
	v.SetDefault(KeyProxy, d.Proxy)
	v.SetDefault(KeyVerbose, d.Verbose)
	v.SetDefault(KeyDownload, d.Download)
	v.SetDefault(KeyArch, d.Arch)
	v.SetDefault(KeyEngineVersion, d.EngineVersion)
	v.SetDefault(KeyPreRelease, d.PreRelease)
	v.SetDefault(KeySerialDownload, d.SerialDownload)
	v.SetDefault(KeyStrictEngine, d.StrictEngine)
	v.SetDefault(KeyConcurrency, d.Concurrency)
	v.SetDefault(KeyDumpResponses, d.DumpResponses)
	v.SetDefault(KeyAPIURL, d.APIURL)
	v.SetDefault(KeyGalleryURL, d.GalleryURL)

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		if err := v.BindEnv(key, branding.EnvVar(key), alias); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = FilePath()
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType(fileType)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return v, nil
}

// Load decodes the resolved settings from v.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// IsKey reports whether key names a setting.
func IsKey(key string) bool {
	return slices.Contains(Keys, key)
}

// Get returns the file value of key at path, or "" when unset.
func Get(path, key string) (string, error) {
	v, err := fileOnly(path)
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// List returns every key stored in the file at path.
func List(path string) (map[string]string, error) {
	v, err := fileOnly(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, key := range v.AllKeys() {
		out[key] = v.GetString(key)
	}
	return out, nil
}

// Set writes a key-value pair into the config file at path, creating the
// file and its directory as needed.
func Set(path, key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("%w %q (known keys: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v, err := fileOnly(path)
	if err != nil {
		return err
	}
	v.Set(key, value)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileOnly reads just the config file, without defaults or environment, so
// writes never persist values that came from elsewhere.
func fileOnly(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return v, nil
}
