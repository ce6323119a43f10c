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
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/shmkv/internal/logger"
	"github.com/srediag/shmkv/internal/shm"
)

// Options configures Create and Open. Meter and Tracer are optional; when
// nil the store runs uninstrumented.
type Options struct {
	// Name identifies the region in the shared memory namespace. A POSIX
	// style leading '/' is accepted and stripped.
	Name   string
	Meter  metric.Meter
	Tracer trace.Tracer
}

// Store is a handle to the shared table mapped into this process. It is
// safe for use from multiple goroutines; all table access is serialized
// through the gate embedded in the region.
type Store struct {
	name   string
	region *shm.Region
	tab    table
	gate   gate
	closed atomic.Bool

	ops metric.Int64Counter
}

// Create allocates a new named region sized exactly to the table layout,
// zero-fills it and initializes the gate to unlocked. It fails with
// ErrAlreadyExists when a region of that name is present; no process may
// silently reuse another creator's region. Any failure after the region is
// allocated rolls back so no orphan survives a failed create.
func Create(ctx context.Context, opts Options) (*Store, error) {
	if opts.Tracer != nil {
		var span trace.Span
		ctx, span = opts.Tracer.Start(ctx, "shmkv.Create")
		defer span.End()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	region, err := shm.Create(opts.Name, RegionSize)
	if err != nil {
		if shm.IsExist(err) {
			return nil, fmt.Errorf("create %q: %w", opts.Name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create %q: %w", opts.Name, err)
	}
	s := newStore(region, opts)
	// The mapping is already zero-filled; the stores below make the
	// born-empty state explicit before any other process can attach.
	atomic.StoreUint32(s.tab.versionWord(), 0)
	atomic.StoreUint32(s.tab.entryCountWord(), 0)
	s.gate.init()
	registerAttach(s.name)
	return s, nil
}

// Open maps an existing named region without altering its contents. It
// fails with ErrNotFound when no such region exists.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Tracer != nil {
		var span trace.Span
		ctx, span = opts.Tracer.Start(ctx, "shmkv.Open")
		defer span.End()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	region, err := shm.Open(opts.Name, RegionSize)
	if err != nil {
		if shm.IsNotExist(err) {
			return nil, fmt.Errorf("open %q: %w", opts.Name, ErrNotFound)
		}
		return nil, fmt.Errorf("open %q: %w", opts.Name, err)
	}
	s := newStore(region, opts)
	registerAttach(s.name)
	return s, nil
}

// OpenWithRetry opens the region, retrying ErrNotFound with the given
// backoff until the creator shows up or the context is done. Any other
// failure is permanent.
func OpenWithRetry(ctx context.Context, opts Options, b backoff.BackOff) (*Store, error) {
	var s *Store
	op := func() error {
		var err error
		s, err = Open(ctx, opts)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(region *shm.Region, opts Options) *Store {
	s := &Store{
		name:   region.Name,
		region: region,
		tab:    table{mem: region.Addr},
	}
	s.gate = gate{word: s.tab.gateWord()}
	if opts.Meter != nil {
		ops, err := opts.Meter.Int64Counter("shmkv.operations",
			metric.WithDescription("Table operations by kind."))
		if err != nil {
			logger.Default.Warnf("meter counter init failed: %v", err)
		} else {
			s.ops = ops
		}
	}
	return s
}

// Name returns the normalized region name.
func (s *Store) Name() string { return s.name }

// Close unmaps the region and releases the per-process handle. It never
// touches the gate and never removes the region from the namespace; other
// attachers are unaffected. Unmap failure is reported but leaves the
// handle closed as far as this process is concerned. Later operations on
// this handle fail with ErrClosed and the counter peeks read zero; an
// operation already past its closed check when Close runs still races the
// unmap, so callers drain their own users of the handle first.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	unregisterAttach(s.name)
	err := shm.Close(s.region)
	s.region = nil
	s.tab = table{}
	if err != nil {
		logger.Default.Warnf("close region %q: %v", s.name, err)
		return err
	}
	return nil
}

// Unlink removes the region from the namespace so no future Open can find
// it. Mappings held by attached processes stay valid until they Close.
// Unlinking an absent region is not an error. By convention only the
// creating process unlinks, once it expects no further attachers; nothing
// enforces this.
func Unlink(name string) error {
	return shm.Unlink(name)
}

// Set inserts the pair or updates the value of an existing key in place.
// A new key lands in the first empty slot of the scan order; when no slot
// is free the call fails with ErrCapacityExceeded and changes nothing.
// Updating an existing key succeeds even when the table is full.
func (s *Store) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}
	if s.closed.Load() {
		return fmt.Errorf("set %q: %w", key, ErrClosed)
	}
	s.countOp("set")

	s.gate.acquire()
	defer s.gate.release()

	// One left-to-right scan: remember the first empty slot, stop early on
	// a key match. First match wins, first empty slot is the insert target.
	match, free := -1, -1
	for i := 0; i < MaxEntries; i++ {
		if s.tab.empty(i) {
			if free < 0 {
				free = i
			}
			continue
		}
		if s.tab.keyEquals(i, key) {
			match = i
			break
		}
	}
	now := time.Now().Unix()
	switch {
	case match >= 0:
		s.tab.setValue(match, value)
		s.tab.setTimestamp(match, now)
	case free >= 0:
		s.tab.setKey(free, key)
		s.tab.setValue(free, value)
		s.tab.setTimestamp(free, now)
		atomic.AddUint32(s.tab.entryCountWord(), 1)
	default:
		return fmt.Errorf("set %q: %w", key, ErrCapacityExceeded)
	}
	atomic.AddUint32(s.tab.versionWord(), 1)
	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound. It never
// changes version or entry count.
func (s *Store) Get(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if s.closed.Load() {
		return "", fmt.Errorf("get %q: %w", key, ErrClosed)
	}
	s.countOp("get")

	s.gate.acquire()
	defer s.gate.release()

	for i := 0; i < MaxEntries; i++ {
		if !s.tab.empty(i) && s.tab.keyEquals(i, key) {
			return s.tab.value(i), nil
		}
	}
	return "", fmt.Errorf("get %q: %w", key, ErrKeyNotFound)
}

// Delete removes the pair stored under key, or fails with ErrKeyNotFound.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return fmt.Errorf("delete %q: %w", key, ErrClosed)
	}
	s.countOp("delete")

	s.gate.acquire()
	defer s.gate.release()

	for i := 0; i < MaxEntries; i++ {
		if s.tab.empty(i) || !s.tab.keyEquals(i, key) {
			continue
		}
		s.tab.clear(i)
		atomic.AddUint32(s.tab.entryCountWord(), ^uint32(0))
		atomic.AddUint32(s.tab.versionWord(), 1)
		return nil
	}
	return fmt.Errorf("delete %q: %w", key, ErrKeyNotFound)
}

// Version reads the mutation counter without taking the gate. The value
// wraps on uint32 overflow. This is the best-effort peek observers poll
// for change detection; use Snapshot for a consistent view. A closed
// handle reads zero.
func (s *Store) Version() uint32 {
	if s.closed.Load() {
		return 0
	}
	return atomic.LoadUint32(s.tab.versionWord())
}

// EntryCount reads the occupied-slot count without taking the gate. A
// closed handle reads zero.
func (s *Store) EntryCount() uint32 {
	if s.closed.Load() {
		return 0
	}
	return atomic.LoadUint32(s.tab.entryCountWord())
}

func (s *Store) countOp(kind string) {
	if s.ops != nil {
		s.ops.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("op", kind)))
	}
}

func validateKey(key string) error {
	if key == "" || strings.IndexByte(key, 0) >= 0 {
		return fmt.Errorf("key: %w", ErrInvalidArgument)
	}
	if len(key) >= KeyFieldSize {
		return fmt.Errorf("key: %w", ErrNameTooLong)
	}
	return nil
}

func validateValue(value string) error {
	if value == "" || strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("value: %w", ErrInvalidArgument)
	}
	if len(value) >= ValueFieldSize {
		return fmt.Errorf("value: %w", ErrNameTooLong)
	}
	return nil
}
