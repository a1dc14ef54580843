package dolphin

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

type mappings struct {
	mem1 uintptr
	mem2 uintptr
}

// findProcess returns the first pid under procRoot whose comm matches one of names.
func findProcess(procRoot string, names []string) (int, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", procRoot, err)
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		comm, err := os.ReadFile(filepath.Join(procRoot, e.Name(), "comm"))
		if err != nil {
			continue
		}
		if slices.Contains(names, strings.TrimSpace(string(comm))) {
			return pid, nil
		}
	}
	return 0, ErrProcessNotFound
}

// findMappings scans /proc/<pid>/maps for Dolphin's shared RAM views.
func findMappings(procRoot string, pid int) (mappings, error) {
	f, err := os.Open(filepath.Join(procRoot, strconv.Itoa(pid), "maps"))
	if err != nil {
		return mappings{}, fmt.Errorf("opening maps: %w", err)
	}
	defer f.Close()

	var m mappings
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 || !strings.Contains(fields[5], "dolphin-emu") {
			continue
		}
		lo, hi, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		start, err1 := strconv.ParseUint(lo, 16, 64)
		end, err2 := strconv.ParseUint(hi, 16, 64)
		offset, err3 := strconv.ParseUint(fields[2], 16, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		size := end - start
		switch {
		case m.mem1 == 0 && offset == 0 && size == mem1MapSize:
			m.mem1 = uintptr(start)
		case m.mem2 == 0 && offset == mem2MapOffset && size == mem2MapSize:
			m.mem2 = uintptr(start)
		}
	}
	if err := sc.Err(); err != nil {
		return mappings{}, fmt.Errorf("reading maps: %w", err)
	}
	if m.mem1 == 0 {
		return mappings{}, ErrRAMNotMapped
	}
	return m, nil
}
