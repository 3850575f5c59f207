//go:build unix

package lpstat

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// readKeys maps a regular file read-only and splits the keys directly out
// of the mapping; only the keys themselves are copied to the heap. Other
// file types (pipes, devices) are read normally.
func readKeys(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return splitKeys(data), nil
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("%s: file too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	keys := splitKeys(data)
	if err := unix.Munmap(data); err != nil {
		return nil, fmt.Errorf("munmap %s: %w", path, err)
	}
	return keys, nil
}
