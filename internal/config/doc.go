// Package config resolves harvester settings from flags, environment
// variables, the user config file at ~/.vsix-harvester/config.yaml, and
// built-in defaults, in that order of precedence. It also backs the
// "config get/set/list" commands.
package config
