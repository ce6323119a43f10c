// Package shmkv implements a fixed-capacity key-value table living in a
// single named shared memory region, usable concurrently by independent
// processes.
//
// One process creates the region (Create); any number of others attach to
// it (Open). All table access is serialized through a binary gate embedded
// in the region itself, and every successful mutation bumps a version
// counter that observers poll for change detection.
//
// The table holds at most MaxEntries entries; keys and values are bounded
// strings stored in fixed fields, so the region's byte layout and total
// size never change for its lifetime.
//
// Known limitation: the gate has no owner-death recovery. A process that
// dies while holding it blocks every other attacher.
package shmkv
