/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:build linux

package shm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const devShmDir = "/dev/shm"

// NormalizeName strips the POSIX leading slash and rejects names that would
// escape the shared memory directory.
func NormalizeName(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, '/') {
		return "", fmt.Errorf("invalid region name %q", name)
	}
	return name, nil
}

func regionPath(name string) string {
	return filepath.Join(devShmDir, name)
}

// Create allocates a new named region of exactly size bytes, maps it shared
// and zero-fills it. The create is exclusive: an existing region of the same
// name fails with EEXIST. Any failure after the shm object exists rolls back
// so that no orphaned region survives.
func Create(name string, size int) (*Region, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if !canCreateOnDevShm(uint64(size)) {
		return nil, fmt.Errorf("create region %q: no space left on %s", name, devShmDir)
	}
	fd, err := unix.Open(regionPath(name), unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm open: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(regionPath(name))
		return nil, fmt.Errorf("ftruncate: %w", err)
	}
	addr, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(regionPath(name))
		return nil, fmt.Errorf("mmap: %w", err)
	}
	for i := 0; i < len(addr); i++ {
		addr[i] = 0
	}
	return &Region{Addr: addr, Fd: fd, Size: size, Name: name}, nil
}

// Open maps an existing named region without altering its contents. The
// region on disk must be exactly size bytes; creator and opener share one
// compiled layout, so a mismatch means a different binary owns the name.
func Open(name string, size int) (*Region, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(regionPath(name), unix.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm open: %w", err)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("fstat: %w", err)
	}
	if st.Size != int64(size) {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("region %q is %d bytes, want %d", name, st.Size, size)
	}
	addr, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &Region{Addr: addr, Fd: fd, Size: size, Name: name}, nil
}

// Close unmaps the region and releases the per-process descriptor. The
// region stays in the namespace; other attachers are unaffected. The
// descriptor is closed even when munmap fails.
func Close(r *Region) error {
	if r == nil || r.Addr == nil {
		return nil
	}
	merr := unix.Munmap(r.Addr)
	r.Addr = nil
	cerr := unix.Close(r.Fd)
	r.Fd = -1
	if merr != nil {
		return fmt.Errorf("munmap: %w", merr)
	}
	if cerr != nil {
		return fmt.Errorf("close: %w", cerr)
	}
	return nil
}

// Unlink removes the region from the namespace. Existing mappings stay
// valid until their holders Close. Unlinking an absent region is not an
// error.
func Unlink(name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	if err := unix.Unlink(regionPath(name)); err != nil && !errors.Is(err, unix.ENOENT) {
		return fmt.Errorf("shm unlink: %w", err)
	}
	return nil
}

// IsExist reports whether err means the region name is already taken.
func IsExist(err error) bool { return errors.Is(err, unix.EEXIST) }

// IsNotExist reports whether err means no region of that name exists.
func IsNotExist(err error) bool { return errors.Is(err, unix.ENOENT) }
