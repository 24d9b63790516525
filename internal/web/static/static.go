// Package static bundles the stylesheet served under /static/
package static

import "embed"

// FS holds the built-in assets, rooted so that "css/style.css" resolves
//
//go:embed css
var FS embed.FS
