//go:build !unix

package engine

import (
	"os"

	"github.com/leengari/tablestore/internal/domain/errors"
)

// dirLock only holds the lock file open on platforms without flock
type dirLock struct {
	file *os.File
}

func acquireLock(path string) (*dirLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	return &dirLock{file: file}, nil
}

func (l *dirLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
