// Package remote defines the capability used to read another process's memory.
package remote

import (
	"errors"
	"fmt"

	"github.com/galaxygst/galaxygst/pkg/core"
)

var (
	// ErrNullPointer is returned for any read at address 0.
	ErrNullPointer = errors.New("null pointer dereference")
	// ErrNotAttached is returned when reading before Attach succeeded.
	ErrNotAttached = errors.New("not attached to process")
)

// Reader reads values from the emulated game's address space.
// All multi-byte values are big-endian in the emulated memory.
type Reader interface {
	IsAttached() bool
	Attach() error
	Detach() error

	ReadU32(addr uint32) (uint32, error)
	ReadS32(addr uint32) (int32, error)
	ReadF32(addr uint32) (float32, error)
	ReadBool(addr uint32) (bool, error)
	ReadBytes(addr uint32, n int) ([]byte, error)
	// ReadCString reads ASCII bytes until a NUL terminator.
	ReadCString(addr uint32) (string, error)
}

// NullError wraps ErrNullPointer with the name of what was being read.
func NullError(what string) error {
	return fmt.Errorf("%s is NULL: %w", what, ErrNullPointer)
}

// ReadVec3f reads three consecutive floats at addr.
func ReadVec3f(r Reader, addr uint32) (core.Vec3f, error) {
	if addr == 0 {
		return core.Vec3f{}, NullError("Vec*")
	}
	var v core.Vec3f
	var err error
	if v.X, err = r.ReadF32(addr); err != nil {
		return v, err
	}
	if v.Y, err = r.ReadF32(addr + 4); err != nil {
		return v, err
	}
	if v.Z, err = r.ReadF32(addr + 8); err != nil {
		return v, err
	}
	return v, nil
}
