// Package assets embeds the static web page served by the HTTP server.
package assets

import _ "embed"

// Index is the minified upload and review page built by cmd/minify.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed logo.svg
var Favicon []byte
