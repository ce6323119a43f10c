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

package shmkv

import (
	"sync/atomic"

	"github.com/srediag/shmkv/internal/shm"
)

const (
	gateLocked   = 0
	gateUnlocked = 1
)

// gate is the binary cross-process semaphore embedded in the region. Every
// attached process manipulates the same futex word, so holding the gate
// excludes threads of every attacher, not just the local process.
//
// Acquire blocks indefinitely: there is no timeout and no cancellation of
// an in-flight acquire, and no owner-death recovery. A process dying while
// holding the gate wedges every attacher.
type gate struct {
	word *uint32
}

// init puts the gate into the unlocked, cross-process-shareable state.
// Creator only, before any other process can attach.
func (g gate) init() {
	atomic.StoreUint32(g.word, gateUnlocked)
}

func (g gate) acquire() {
	for {
		if atomic.CompareAndSwapUint32(g.word, gateUnlocked, gateLocked) {
			return
		}
		// Woken spuriously or lost the race: loop and retry the CAS.
		_ = shm.FutexWait(g.word, gateLocked)
	}
}

func (g gate) release() {
	atomic.StoreUint32(g.word, gateUnlocked)
	_ = shm.FutexWake(g.word, 1)
}
