// Package marketplace talks to the Visual Studio Marketplace gallery API.
//
// A Client queries the extensionquery endpoint for one extension, decodes the
// version list, and picks a version with Resolve: the newest version when no
// engine is given, otherwise the newest version whose engine requirement the
// engine satisfies (falling back to the newest overall). Locate turns the
// chosen version into a vspackage URL and a local .vsix path, and Fetch
// downloads it unless a file with that exact name already exists.
package marketplace
