//go:build linux

package shm

import (
	"os"

	"github.com/shirou/gopsutil/v3/disk"
)

// canCreateOnDevShm reports whether /dev/shm has room for a region of the
// given size. When the filesystem cannot be probed the create proceeds and
// ftruncate reports the real failure.
func canCreateOnDevShm(size uint64) bool {
	stat, err := disk.Usage(devShmDir)
	if err != nil {
		return true
	}
	return stat.Free >= size
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
