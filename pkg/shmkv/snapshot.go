package shmkv

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Entry is one occupied slot copied out of the table.
type Entry struct {
	Key       string
	Value     string
	Timestamp time.Time
}

// Snapshot is a consistent copy of the counters and all occupied entries,
// taken under the gate. Entries appear in slot order.
type Snapshot struct {
	Version    uint32
	EntryCount uint32
	Entries    []Entry
}

// Snapshot copies version, entry count and every occupied entry out of the
// region in one gate-held pass. Observers needing only change detection
// can poll Version instead. A closed handle yields an empty snapshot.
func (s *Store) Snapshot() Snapshot {
	if s.closed.Load() {
		return Snapshot{}
	}
	s.gate.acquire()
	defer s.gate.release()

	snap := Snapshot{
		Version:    atomic.LoadUint32(s.tab.versionWord()),
		EntryCount: atomic.LoadUint32(s.tab.entryCountWord()),
	}
	snap.Entries = make([]Entry, 0, snap.EntryCount)
	for i := 0; i < MaxEntries; i++ {
		if s.tab.empty(i) {
			continue
		}
		snap.Entries = append(snap.Entries, Entry{
			Key:       s.tab.key(i),
			Value:     s.tab.value(i),
			Timestamp: time.Unix(s.tab.timestamp(i), 0),
		})
	}
	return snap
}

func (snap Snapshot) String() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	fmt.Fprintf(buf, "version:%d entries:%d", snap.Version, snap.EntryCount)
	for _, e := range snap.Entries {
		fmt.Fprintf(buf, "\n  %s = %s (%s)", e.Key, e.Value, e.Timestamp.Format(time.RFC3339))
	}
	return buf.String()
}
