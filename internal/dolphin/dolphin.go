// Package dolphin implements remote.Reader against a running Dolphin emulator
// by reading the emulated RAM mappings of its process.
package dolphin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/galaxygst/galaxygst/internal/remote"
)

// Emulated address ranges of the Wii.
const (
	MEM1Start = 0x80000000
	MEM1Size  = 0x01800000
	MEM2Start = 0x90000000
	MEM2Size  = 0x04000000

	// sizes and offsets of the shared memory views Dolphin maps
	mem1MapSize   = 0x02000000
	mem2MapSize   = 0x04000000
	mem2MapOffset = 0x02040000
)

var (
	// ErrProcessNotFound is returned by Attach when no emulator is running.
	ErrProcessNotFound = errors.New("dolphin process not found")
	// ErrRAMNotMapped is returned when the emulator runs but no game is booted.
	ErrRAMNotMapped = errors.New("emulated RAM not mapped")
	// ErrUnsupported is returned on platforms without a reader implementation.
	ErrUnsupported = errors.New("dolphin memory access is not supported on this platform")
)

// DefaultProcessNames are the executable names searched for by Attach.
var DefaultProcessNames = []string{"dolphin-emu", "dolphin-emu-qt2", "dolphin-emu-nogui", "dolphin-emu-wx"}

// Reader reads big-endian values from the emulated RAM of a Dolphin process.
type Reader struct {
	mu        sync.Mutex
	names     []string
	pid       int
	mem1Base  uintptr
	mem2Base  uintptr
	hasMEM2   bool
	attached  bool
	procRoot  string
	readHostF func(pid int, host uintptr, buf []byte) error
}

// New returns a detached reader looking for processes with the given names.
func New(names ...string) *Reader {
	if len(names) == 0 {
		names = DefaultProcessNames
	}
	return &Reader{names: names, procRoot: "/proc", readHostF: readHost}
}

var _ remote.Reader = (*Reader)(nil)

// IsAttached reports whether RAM mappings of a process are known.
func (r *Reader) IsAttached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// Attach locates the emulator process and its RAM mappings.
func (r *Reader) Attach() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, err := findProcess(r.procRoot, r.names)
	if err != nil {
		return err
	}
	maps, err := findMappings(r.procRoot, pid)
	if err != nil {
		return err
	}
	r.pid = pid
	r.mem1Base = maps.mem1
	r.mem2Base = maps.mem2
	r.hasMEM2 = maps.mem2 != 0
	r.attached = true
	return nil
}

// Detach forgets the process. It never fails.
func (r *Reader) Detach() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached = false
	r.pid = 0
	return nil
}

// translate maps an emulated address to a host address in the process.
func (r *Reader) translate(addr uint32, n int) (uintptr, error) {
	end := uint64(addr) + uint64(n)
	switch {
	case addr >= MEM1Start && end <= MEM1Start+MEM1Size:
		return r.mem1Base + uintptr(addr-MEM1Start), nil
	case r.hasMEM2 && addr >= MEM2Start && end <= MEM2Start+MEM2Size:
		return r.mem2Base + uintptr(addr-MEM2Start), nil
	default:
		return 0, fmt.Errorf("address 0x%08X (+%d) outside emulated RAM", addr, n)
	}
}

func (r *Reader) read(addr uint32, n int) ([]byte, error) {
	if addr == 0 {
		return nil, remote.NullError(fmt.Sprintf("read of %d bytes", n))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.attached {
		return nil, remote.ErrNotAttached
	}
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d at 0x%08X", n, addr)
	}
	host, err := r.translate(addr, n)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if err := r.readHostF(r.pid, host, buf); err != nil {
		return nil, fmt.Errorf("reading 0x%08X: %w", addr, err)
	}
	return buf, nil
}

func (r *Reader) ReadU32(addr uint32) (uint32, error) {
	b, err := r.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadS32(addr uint32) (int32, error) {
	v, err := r.ReadU32(addr)
	return int32(v), err
}

func (r *Reader) ReadF32(addr uint32) (float32, error) {
	v, err := r.ReadU32(addr)
	return math.Float32frombits(v), err
}

func (r *Reader) ReadBool(addr uint32) (bool, error) {
	b, err := r.read(addr, 1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Reader) ReadBytes(addr uint32, n int) ([]byte, error) {
	return r.read(addr, n)
}

// ReadCString reads in small chunks until a NUL byte is found.
func (r *Reader) ReadCString(addr uint32) (string, error) {
	if addr == 0 {
		return "", remote.NullError("char*")
	}
	const chunk = 32
	var out []byte
	for a := addr; ; a += chunk {
		n := chunk
		if rem := r.remaining(a); rem < n {
			n = rem
		}
		if n <= 0 {
			return "", fmt.Errorf("unterminated string at 0x%08X", addr)
		}
		b, err := r.read(a, n)
		if err != nil {
			return "", err
		}
		for i, c := range b {
			if c == 0 {
				return string(append(out, b[:i]...)), nil
			}
		}
		out = append(out, b...)
	}
}

// remaining returns how many bytes can be read from addr before the end of its region.
func (r *Reader) remaining(addr uint32) int {
	switch {
	case addr >= MEM1Start && addr < MEM1Start+MEM1Size:
		return int(MEM1Start + MEM1Size - addr)
	case addr >= MEM2Start && addr < MEM2Start+MEM2Size:
		return int(MEM2Start + MEM2Size - addr)
	default:
		return 0
	}
}
