//go:build !linux

package dolphin

func readHost(int, uintptr, []byte) error {
	return ErrUnsupported
}
