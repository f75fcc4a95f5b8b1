// SPDX-License-Identifier: MPL-2.0

// Package config handles uneet CLI configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/uneet/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/uneet/config.cue on macOS, %APPDATA%\uneet\config.cue
// on Windows), falling back to ./config.cue. It covers discovery settings (namespaces,
// marker name, scope), the script components run by `uneet run`, watch mode, UI and
// output preferences.
//
// Configuration files are validated against an embedded CUE schema (config_schema.cue)
// before being merged over the defaults.
package config
