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
	"bytes"
	"unsafe"
)

// Region byte layout. Creator and opener must be built from the same
// layout; Open rejects a region whose size differs.
//
//	entry:  key 64 | value 256 | timestamp 8          = 328 bytes
//	region: table 10*328 | gate 4 (+4 pad) | version 4 | count 4 = 3296 bytes
//
// A slot is empty iff the first byte of its key field is zero; there is
// no separate occupied flag.
const (
	// MaxEntries is the fixed slot count of the table.
	MaxEntries = 10
	// KeyFieldSize bounds keys to KeyFieldSize-1 content bytes plus a
	// zero terminator.
	KeyFieldSize = 64
	// ValueFieldSize bounds values to ValueFieldSize-1 content bytes.
	ValueFieldSize = 256

	entryValueOffset     = KeyFieldSize
	entryTimestampOffset = KeyFieldSize + ValueFieldSize
	entrySize            = KeyFieldSize + ValueFieldSize + 8

	tableOffset = 0
	// The gate word is 4 bytes but padded to 8 so the timestamps before it
	// and the counters after it stay naturally aligned.
	gateOffset       = tableOffset + entrySize*MaxEntries
	versionOffset    = gateOffset + 8
	entryCountOffset = versionOffset + 4

	// RegionSize is the exact size of the shared region in bytes.
	RegionSize = entryCountOffset + 4
)

// table is a view over the mapped region bytes. All methods assume the
// caller holds the gate unless noted otherwise.
type table struct {
	mem []byte
}

func (t table) entry(i int) []byte {
	off := tableOffset + i*entrySize
	return t.mem[off : off+entrySize]
}

func (t table) keyField(i int) []byte {
	return t.entry(i)[:KeyFieldSize]
}

func (t table) valueField(i int) []byte {
	return t.entry(i)[entryValueOffset:entryTimestampOffset]
}

func (t table) empty(i int) bool {
	return t.keyField(i)[0] == 0
}

func (t table) key(i int) string {
	return fieldString(t.keyField(i))
}

func (t table) value(i int) string {
	return fieldString(t.valueField(i))
}

func (t table) timestamp(i int) int64 {
	return *(*int64)(unsafe.Pointer(&t.entry(i)[entryTimestampOffset]))
}

func (t table) setTimestamp(i int, ts int64) {
	*(*int64)(unsafe.Pointer(&t.entry(i)[entryTimestampOffset])) = ts
}

// keyEquals compares without allocating.
func (t table) keyEquals(i int, key string) bool {
	f := t.keyField(i)
	if len(key) >= KeyFieldSize || f[len(key)] != 0 {
		return false
	}
	return string(f[:len(key)]) == key
}

// setKey and setValue zero the whole field before copying so stale bytes
// of a longer previous occupant never survive past the terminator.
func (t table) setKey(i int, key string) {
	f := t.keyField(i)
	for j := range f {
		f[j] = 0
	}
	copy(f, key)
}

func (t table) setValue(i int, value string) {
	f := t.valueField(i)
	for j := range f {
		f[j] = 0
	}
	copy(f, value)
}

// clear empties the slot, key's first byte before anything else, so a
// relaxed reader can never see a half-cleared entry as a valid key.
func (t table) clear(i int) {
	e := t.entry(i)
	e[0] = 0
	for j := 1; j < len(e); j++ {
		e[j] = 0
	}
}

func (t table) gateWord() *uint32 {
	return (*uint32)(unsafe.Pointer(&t.mem[gateOffset]))
}

func (t table) versionWord() *uint32 {
	return (*uint32)(unsafe.Pointer(&t.mem[versionOffset]))
}

func (t table) entryCountWord() *uint32 {
	return (*uint32)(unsafe.Pointer(&t.mem[entryCountOffset]))
}

func fieldString(f []byte) string {
	if i := bytes.IndexByte(f, 0); i >= 0 {
		return string(f[:i])
	}
	return string(f)
}
