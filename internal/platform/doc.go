// Package platform enumerates the marketplace build targets an extension can
// be published for. Each target maps to a manifest field name (linux_x64) and,
// except for the universal target, to the gallery's targetPlatform query token
// (linux-x64). The table is closed: adding a target means adding a row here.
package platform
