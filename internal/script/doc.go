// SPDX-License-Identifier: MPL-2.0

// Package script runs component scripts declared in the configuration file.
//
// Each script is parsed once and executed by the mvdan/sh interpreter for every
// component instance. The component is described to the script through
// UNEET_* environment variables: props and shared values are JSON encoded,
// element positions are CSS-like paths.
package script
