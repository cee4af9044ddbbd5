//go:build linux

package storage

import (
	"os"
	"syscall"
	"time"
)

// fileTimes extracts creation and access times from the platform stat
// structure. Linux stat carries no birth time, so the inode change time
// stands in for creation.
func fileTimes(fi os.FileInfo) (created, accessed time.Time) {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
		accessed = time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
		return created, accessed
	}
	return fi.ModTime(), fi.ModTime()
}
