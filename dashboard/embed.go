// Package dashboard provides the embedded web UI assets for the widget board.
//
// The embedded assets are served by the server package at the root path ("/").
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
