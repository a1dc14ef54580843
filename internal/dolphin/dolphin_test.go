package dolphin

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/galaxygst/galaxygst/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaps = `55d0c0000000-55d0c0100000 r-xp 00000000 08:01 1234 /usr/bin/dolphin-emu
7f0000000000-7f0002000000 rw-s 00000000 00:01 99 /dev/shm/dolphin-emu.1234 (deleted)
7f1000000000-7f1004000000 rw-s 02040000 00:01 99 /dev/shm/dolphin-emu.1234 (deleted)
7f2000000000-7f2000001000 rw-p 00000000 00:00 0
`

func writeProc(t *testing.T, pid string, comm, maps string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, pid)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maps"), []byte(maps), 0o644))
	return root
}

// fakeHost backs the two RAM regions with byte slices keyed by host base.
type fakeHost struct {
	regions map[uintptr][]byte
}

func (f *fakeHost) read(_ int, host uintptr, buf []byte) error {
	for base, mem := range f.regions {
		if host >= base && host+uintptr(len(buf)) <= base+uintptr(len(mem)) {
			copy(buf, mem[host-base:])
			return nil
		}
	}
	return os.ErrInvalid
}

func attachedReader(t *testing.T) (*Reader, *fakeHost) {
	t.Helper()
	root := writeProc(t, "1234", "dolphin-emu", testMaps)
	host := &fakeHost{regions: map[uintptr][]byte{
		0x7f0000000000: make([]byte, MEM1Size),
		0x7f1000000000: make([]byte, 0x1000),
	}}
	r := New()
	r.procRoot = root
	r.readHostF = host.read
	require.NoError(t, r.Attach())
	return r, host
}

func TestAttach_FindsMappings(t *testing.T) {
	r, _ := attachedReader(t)
	assert.True(t, r.IsAttached())
	assert.Equal(t, 1234, r.pid)
	assert.Equal(t, uintptr(0x7f0000000000), r.mem1Base)
	assert.Equal(t, uintptr(0x7f1000000000), r.mem2Base)

	require.NoError(t, r.Detach())
	assert.False(t, r.IsAttached())
	_, err := r.ReadU32(MEM1Start)
	assert.ErrorIs(t, err, remote.ErrNotAttached)
}

func TestAttach_NoProcess(t *testing.T) {
	root := writeProc(t, "42", "bash", "")
	r := New()
	r.procRoot = root
	assert.ErrorIs(t, r.Attach(), ErrProcessNotFound)
}

func TestAttach_NoGameBooted(t *testing.T) {
	root := writeProc(t, "42", "dolphin-emu", "55d0c0000000-55d0c0100000 r-xp 00000000 08:01 1234 /usr/bin/dolphin-emu\n")
	r := New()
	r.procRoot = root
	assert.ErrorIs(t, r.Attach(), ErrRAMNotMapped)
	assert.False(t, r.IsAttached())
}

func TestReader_Values(t *testing.T) {
	r, host := attachedReader(t)
	mem1 := host.regions[0x7f0000000000]
	mem2 := host.regions[0x7f1000000000]

	copy(mem1, "SB4E")
	binary.BigEndian.PutUint32(mem1[0x3FF8:], 0x80123400)
	binary.BigEndian.PutUint32(mem1[0x100:], math.Float32bits(-2.5))
	mem1[0x200] = 1
	copy(mem2[0x10:], "Wait\x00")

	id, err := r.ReadBytes(MEM1Start, 4)
	require.NoError(t, err)
	assert.Equal(t, "SB4E", string(id))

	u, err := r.ReadU32(0x80003FF8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80123400), u)

	f, err := r.ReadF32(0x80000100)
	require.NoError(t, err)
	assert.Equal(t, float32(-2.5), f)

	b, err := r.ReadBool(0x80000200)
	require.NoError(t, err)
	assert.True(t, b)

	s, err := r.ReadCString(0x90000010)
	require.NoError(t, err)
	assert.Equal(t, "Wait", s)
}

func TestReader_AddressErrors(t *testing.T) {
	r, _ := attachedReader(t)

	_, err := r.ReadU32(0)
	assert.ErrorIs(t, err, remote.ErrNullPointer)

	_, err = r.ReadU32(0x12345678)
	assert.ErrorContains(t, err, "outside emulated RAM")

	_, err = r.ReadU32(MEM1Start + MEM1Size - 2)
	assert.ErrorContains(t, err, "outside emulated RAM")

	_, err = r.ReadCString(0)
	assert.ErrorIs(t, err, remote.ErrNullPointer)
}

func TestReader_EmptyRead(t *testing.T) {
	r, _ := attachedReader(t)
	r.readHostF = func(int, uintptr, []byte) error {
		t.Fatal("no host read expected for an empty buffer")
		return nil
	}

	b, err := r.ReadBytes(MEM1Start+0x100, 0)
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = r.ReadBytes(MEM1Start+0x100, -1)
	assert.ErrorContains(t, err, "negative read length")
}
