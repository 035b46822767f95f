//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package lock

import (
	"fmt"
	"os"

	uhf "github.com/ZaparooProject/go-uhf"
)

// File is a held lock.
type File struct {
	path string
}

// Acquire creates path exclusively. A file left by another holder yields
// uhf.ErrDeviceBusy.
func Acquire(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", uhf.ErrDeviceBusy, path)
		}
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	_ = f.Close()
	return &File{path: path}, nil
}

// Release removes the lock file.
func (l *File) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	return os.Remove(path)
}
