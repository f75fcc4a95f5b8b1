// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for uneet.
//
// This package implements the Cobra command hierarchy: scan, run, watch and
// config. Commands receive an App carrying the configuration provider and the
// standard streams, so tests drive them with in-memory buffers.
package cmd
