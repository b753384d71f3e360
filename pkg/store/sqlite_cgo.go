//go:build cgo

package store

import (
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// CGODriver is the driver name of the cgo SQLite build, available to
// OpenWithDriver and Config.Driver when cgo is enabled.
const CGODriver = "sqlite3"
