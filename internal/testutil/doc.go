// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that fail the test on error instead of
// returning it: environment and directory handling (MustSetenv, MustChdir,
// MustWriteFile) and HTML fixtures (MustParse, MustByID).
package testutil
