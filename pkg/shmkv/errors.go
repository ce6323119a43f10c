package shmkv

import "errors"

var (
	// ErrAlreadyExists is returned by Create when the region name is taken.
	ErrAlreadyExists = errors.New("shmkv: region already exists")
	// ErrNotFound is returned by Open when no region of that name exists.
	ErrNotFound = errors.New("shmkv: region not found")
	// ErrInvalidArgument is returned for an empty key or value, or one
	// containing a NUL byte.
	ErrInvalidArgument = errors.New("shmkv: invalid argument")
	// ErrNameTooLong is returned when a key or value would not fit its
	// fixed field including the terminator.
	ErrNameTooLong = errors.New("shmkv: key or value too long")
	// ErrCapacityExceeded is returned by Set for a new key when every slot
	// is occupied.
	ErrCapacityExceeded = errors.New("shmkv: table is full")
	// ErrKeyNotFound is returned by Get and Delete for an absent key.
	ErrKeyNotFound = errors.New("shmkv: key not found")
	// ErrClosed is returned by operations on a handle whose mapping was
	// released by Close.
	ErrClosed = errors.New("shmkv: store is closed")
)
