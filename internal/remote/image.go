package remote

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// Image is an in-process Reader over sparse big-endian memory. It backs
// tests and offline replays of captured memory.
type Image struct {
	mu       sync.RWMutex
	mem      map[uint32]byte
	attached bool

	// AttachErr, when set, is returned by Attach.
	AttachErr error
}

// NewImage returns an empty, detached image.
func NewImage() *Image {
	return &Image{mem: make(map[uint32]byte)}
}

func (m *Image) IsAttached() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attached
}

func (m *Image) Attach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AttachErr != nil {
		return m.AttachErr
	}
	m.attached = true
	return nil
}

func (m *Image) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = false
	return nil
}

// PutBytes stores b starting at addr.
func (m *Image) PutBytes(addr uint32, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range b {
		m.mem[addr+uint32(i)] = c
	}
}

// PutU32 stores v big-endian at addr.
func (m *Image) PutU32(addr, v uint32) {
	m.PutBytes(addr, binary.BigEndian.AppendUint32(nil, v))
}

// PutF32 stores v big-endian at addr.
func (m *Image) PutF32(addr uint32, v float32) {
	m.PutU32(addr, math.Float32bits(v))
}

// PutCString stores s followed by a NUL at addr.
func (m *Image) PutCString(addr uint32, s string) {
	m.PutBytes(addr, append([]byte(s), 0))
}

func (m *Image) read(addr uint32, n int) ([]byte, error) {
	if addr == 0 {
		return nil, NullError(fmt.Sprintf("read of %d bytes", n))
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.attached {
		return nil, ErrNotAttached
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = m.mem[addr+uint32(i)]
	}
	return out, nil
}

func (m *Image) ReadU32(addr uint32) (uint32, error) {
	b, err := m.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (m *Image) ReadS32(addr uint32) (int32, error) {
	v, err := m.ReadU32(addr)
	return int32(v), err
}

func (m *Image) ReadF32(addr uint32) (float32, error) {
	v, err := m.ReadU32(addr)
	return math.Float32frombits(v), err
}

func (m *Image) ReadBool(addr uint32) (bool, error) {
	b, err := m.read(addr, 1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (m *Image) ReadBytes(addr uint32, n int) ([]byte, error) {
	return m.read(addr, n)
}

func (m *Image) ReadCString(addr uint32) (string, error) {
	if addr == 0 {
		return "", NullError("char*")
	}
	var out []byte
	for a := addr; ; a++ {
		b, err := m.read(a, 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
}
