package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vsix-harvester/vsix-harvester/internal/branding"
	"github.com/vsix-harvester/vsix-harvester/internal/config"
	"github.com/vsix-harvester/vsix-harvester/internal/harvest"
	"github.com/vsix-harvester/vsix-harvester/internal/marketplace"
)

// BuildInfo is injected via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// flagKeys maps setting keys to the flag that can override them.
var flagKeys = map[string]string{
	config.KeyInput:          "input",
	config.KeyDestination:    "destination",
	config.KeyNoCache:        "no-cache",
	config.KeyProxy:          "proxy",
	config.KeyVerbose:        "verbose",
	config.KeyDownload:       "download",
	config.KeyArch:           "arch",
	config.KeyEngineVersion:  "engine-version",
	config.KeyPreRelease:     "pre-release",
	config.KeySerialDownload: "serial-download",
	config.KeyStrictEngine:   "strict-engine",
	config.KeyConcurrency:    "concurrency",
	config.KeyDumpResponses:  "dump-responses",
	config.KeyAPIURL:         "api-url",
	config.KeyGalleryURL:     "gallery-url",
}

// NewRootCommand builds the full command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	d := config.Defaults()

	root := &cobra.Command{
		Use:   branding.CLIName(),
		Short: branding.Description(),
		Long: branding.DisplayName() + ` downloads VS Code extension packages (.vsix) from the Visual Studio
Marketplace so they can be installed on machines without internet access.

Without --download it reads a manifest (JSON or YAML) listing extensions per
platform and downloads each of them. With --download it fetches one extension.`,
		Example: `  ` + branding.CLIName() + ` -i extensions.json -d ./offline
  ` + branding.CLIName() + ` -D golang.Go -a linux_x64 -e 1.97.0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, info)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is ~/"+branding.HomeDir()+"/config.yaml)")
	pf.BoolP("verbose", "v", d.Verbose, "show debug output")
	pf.String("proxy", d.Proxy, "forward proxy URL for all marketplace requests")
	pf.StringP("engine-version", "e", d.EngineVersion, "target VS Code version; picks the newest compatible release")
	pf.Bool("pre-release", d.PreRelease, "allow pre-release versions when matching an engine version")
	pf.String("dump-responses", d.DumpResponses, "write raw marketplace responses into this directory")
	pf.String("api-url", d.APIURL, "marketplace extensionquery endpoint")
	pf.String("gallery-url", d.GalleryURL, "marketplace package download base URL")
	_ = pf.MarkHidden("api-url")
	_ = pf.MarkHidden("gallery-url")

	f := root.Flags()
	f.StringP("input", "i", d.Input, "manifest listing the extensions to download")
	f.StringP("destination", "d", d.Destination, "directory the .vsix files are written to")
	f.Bool("no-cache", d.NoCache, "download even when the file already exists")
	f.StringP("download", "D", d.Download, "download a single extension (publisher.name) instead of the manifest")
	f.StringP("arch", "a", d.Arch, "platform for --download, e.g. linux_x64 or darwin_arm64")
	f.Bool("serial-download", d.SerialDownload, "download one extension at a time")
	f.Bool("strict-engine", d.StrictEngine, "fail instead of falling back to the latest version when nothing matches the engine")
	f.Int("concurrency", d.Concurrency, "downloads run at once per platform category")

	root.AddCommand(
		newVersionCmd(info),
		newConfigCmd(),
		newVersionsCmd(info),
		newPlatformsCmd(),
		newValidateCmd(),
	)
	return root
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	info := BuildInfo{Version: version, Commit: commit, Date: date}
	return fang.Execute(
		context.Background(),
		NewRootCommand(info),
		fang.WithVersion(info.String()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func runHarvest(cmd *cobra.Command, info BuildInfo) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), s.Verbose)
	client, err := newClient(s, info, logger)
	if err != nil {
		return err
	}

	runner := harvest.NewRunner(client,
		harvest.WithLogger(logger),
		harvest.WithConcurrency(s.Workers()),
	)
	report, err := runner.Run(cmd.Context(), s)
	if report != nil {
		printSummary(cmd.OutOrStdout(), report)
	}
	return err
}

// loadSettings resolves settings with flags taking precedence over the
// environment, the config file and defaults.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.New(path)
	if err != nil {
		return config.Settings{}, err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return config.Settings{}, err
	}
	return config.Load(v)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func newClient(s config.Settings, info BuildInfo, logger *log.Logger) (*marketplace.Client, error) {
	opts := []marketplace.Option{marketplace.WithLogger(logger)}

	proxy, err := s.ProxyURL()
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		opts = append(opts, marketplace.WithProxy(proxy))
	}
	if s.APIURL != "" {
		opts = append(opts, marketplace.WithAPIURL(s.APIURL))
	}
	if s.GalleryURL != "" {
		opts = append(opts, marketplace.WithGalleryURL(s.GalleryURL))
	}
	if s.DumpResponses != "" {
		opts = append(opts, marketplace.WithDumpDir(s.DumpResponses))
	}
	client := marketplace.New(info.Version, opts...)
	logger.Debug("Marketplace client ready",
		"gallery", client.GalleryURL(), "user_agent", client.UserAgent(), "proxy", s.Proxy != "")
	return client, nil
}

func printSummary(w io.Writer, r *harvest.Report) {
	downloaded := r.Count(harvest.StatusDownloaded)
	cached := r.Count(harvest.StatusCached)
	failed := r.Failed()

	fmt.Fprintf(w, "%s %s, %s, %s\n",
		headerStyle.Render("Summary:"),
		successStyle.Render(fmt.Sprintf("%d downloaded (%s)", downloaded, humanize.Bytes(uint64(r.Bytes())))),
		mutedStyle.Render(fmt.Sprintf("%d already present", cached)),
		failureCount(len(failed)),
	)
	for _, item := range failed {
		fmt.Fprintf(w, "  %s %s [%s]: %v\n", errorStyle.Render("✗"), item.Extension, item.Target, item.Err)
	}
	for _, item := range r.Items() {
		if item.Fallback {
			fmt.Fprintf(w, "  %s %s [%s]: no engine match, used latest %s\n",
				warningStyle.Render("!"), item.Extension, item.Target, item.Version)
		}
	}
}

func failureCount(n int) string {
	s := fmt.Sprintf("%d failed", n)
	if n == 0 {
		return mutedStyle.Render(s)
	}
	return errorStyle.Render(s)
}
