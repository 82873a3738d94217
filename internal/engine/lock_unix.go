//go:build unix

package engine

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/leengari/tablestore/internal/domain/errors"
)

// dirLock is an exclusive advisory lock on the store's lock file
type dirLock struct {
	file *os.File
}

func acquireLock(path string) (*dirLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, errors.ErrStoreLocked
		}
		return nil, errors.NewIOError("lock", path, err)
	}
	return &dirLock{file: file}, nil
}

func (l *dirLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return errors.NewIOError("unlock", "", unlockErr)
	}
	return closeErr
}
