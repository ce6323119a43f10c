// Package shm contains the platform layer for named shared memory regions:
// mapping, unmapping, namespace removal and the futex word backing the
// cross-process gate.
package shm

// Region is a named shared memory region mapped into this process.
type Region struct {
	Addr []byte
	Fd   int
	Size int
	Name string
}

// Function implementations are provided in platform-specific files
// (region_linux.go). Only Linux is supported; the region lives as a
// pseudo-file under /dev/shm.
