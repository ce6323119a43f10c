package shmkv

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// attachments counts live handles per region name within this process.
// It exists for introspection (readiness checks, tests); the kernel keeps
// the authoritative mapping count across processes.
var attachments = cmap.New[int]()

func registerAttach(name string) {
	attachments.Upsert(name, 1, func(exist bool, cur, n int) int {
		return cur + n
	})
}

func unregisterAttach(name string) {
	left := attachments.Upsert(name, -1, func(exist bool, cur, n int) int {
		return cur + n
	})
	if left <= 0 {
		attachments.RemoveCb(name, func(_ string, cur int, exists bool) bool {
			return !exists || cur <= 0
		})
	}
}

// Attached returns how many handles this process currently holds on the
// named region.
func Attached(name string) int {
	v, _ := attachments.Get(normalizeName(name))
	return v
}

func normalizeName(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}
