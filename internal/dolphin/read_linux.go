//go:build linux

package dolphin

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// readHost copies len(buf) bytes from the process at host into buf.
func readHost(pid int, host uintptr, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remoteIov := []unix.RemoteIovec{{Base: host, Len: len(buf)}}

	n, err := unix.ProcessVMReadv(pid, local, remoteIov, 0)
	if err != nil {
		return fmt.Errorf("process_vm_readv: %w", err)
	}
	if n != len(buf) {
		return io.ErrUnexpectedEOF
	}
	return nil
}
