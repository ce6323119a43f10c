/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
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
	"fmt"
	"os"
	"unsafe"

	"github.com/valyala/bytebufferpool"
)

// DebugStoreDetail prints the table that lives behind the pseudo-file at
// path, e.g. /dev/shm/<name>. It reads a plain copy of the bytes without
// the gate, so the output is a best-effort diagnostic, not a consistent
// snapshot.
func DebugStoreDetail(path string) {
	mem, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(mem) != RegionSize {
		fmt.Printf("path:%s size:%d, want %d\n", path, len(mem), RegionSize)
		return
	}
	t := table{mem: mem}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	fmt.Fprintf(buf, "path:%s gate:%d version:%d entry_count:%d\n",
		path, *(*uint32)(unsafe.Pointer(&mem[gateOffset])),
		*t.versionWord(), *t.entryCountWord())
	for i := 0; i < MaxEntries; i++ {
		if t.empty(i) {
			fmt.Fprintf(buf, "slot:%d <empty>\n", i)
			continue
		}
		fmt.Fprintf(buf, "slot:%d key:%s value:%s ts:%d\n", i, t.key(i), t.value(i), t.timestamp(i))
	}
	fmt.Print(buf.String())
}
