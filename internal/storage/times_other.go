//go:build !linux

package storage

import (
	"os"
	"time"
)

// fileTimes falls back to the modification time where the platform stat
// structure is not inspected.
func fileTimes(fi os.FileInfo) (created, accessed time.Time) {
	return fi.ModTime(), fi.ModTime()
}
