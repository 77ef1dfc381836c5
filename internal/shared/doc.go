// Package shared holds cross-cutting helpers that belong to no single
// layer of the engine.
//
// The testutil subpackage provides test doubles used across packages,
// currently a capturing slog handler for asserting on structured log
// output. Nothing here may depend on other internal packages.
package shared
