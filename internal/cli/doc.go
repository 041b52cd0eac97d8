// Package cli defines the Cobra command tree for vsix-harvester. The root
// command performs a harvest; subcommands inspect versions and platforms and
// manage the user config file. Commands only resolve settings, build the
// logger and client, and format output; the work happens in internal/harvest
// and internal/marketplace.
package cli
