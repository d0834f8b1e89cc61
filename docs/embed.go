// Package docs bundles long-form Markdown documentation into the cvd
// binary.
package docs

import "embed"

// FS contains the topic index and the topic files.
//
//go:embed index.yaml topics
var FS embed.FS
