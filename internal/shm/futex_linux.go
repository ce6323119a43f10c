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
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex operation codes from <linux/futex.h>; golang.org/x/sys/unix does
// not export these.
const (
	futexWait = 0
	futexWake = 1
)

// FutexWait blocks until the word at addr no longer holds val, or until a
// wake arrives. Spurious returns are possible; callers must re-check the
// word. The futex is shared, never FUTEX_PRIVATE: waiters may live in
// other processes mapping the same region.
func FutexWait(addr *uint32, val uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), uintptr(futexWait), uintptr(val),
		0, 0, 0)
	if errno != 0 && errno != unix.EAGAIN && errno != unix.EINTR {
		return fmt.Errorf("futex wait: %w", errno)
	}
	return nil
}

// FutexWake wakes at most n waiters blocked on the word at addr.
func FutexWake(addr *uint32, n int) error {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), uintptr(futexWake), uintptr(n),
		0, 0, 0)
	if errno != 0 {
		return fmt.Errorf("futex wake: %w", errno)
	}
	return nil
}
