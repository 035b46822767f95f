//go:build linux || darwin || freebsd || netbsd || openbsd

package lock

import (
	"errors"
	"fmt"
	"os"

	uhf "github.com/ZaparooProject/go-uhf"
	"golang.org/x/sys/unix"
)

// File is a held lock.
type File struct {
	f *os.File
}

// Acquire takes an exclusive non-blocking lock on path. A lock held by
// another process yields uhf.ErrDeviceBusy.
func Acquire(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", uhf.ErrDeviceBusy, path)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return &File{f: f}, nil
}

// Release drops the lock. It is safe to call on a nil or released lock.
func (l *File) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil

	unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	closeErr := f.Close()
	return errors.Join(unlockErr, closeErr)
}
